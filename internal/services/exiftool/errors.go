package exiftool

import (
	"fmt"
	"strings"

	"lenscal/internal/services"
)

// ExtractionError reports that exiftool itself could not produce metadata:
// the binary is missing, or it failed without emitting parseable JSON.
type ExtractionError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exiftool extraction failed (%s", e.Binary)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, ", exit %d", e.ExitCode)
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExtraction}
	}
	return []error{services.ErrExtraction, e.Err}
}

// ParseError reports that one image yielded unusable metadata.
type ParseError struct {
	Path   string
	Reason string
	// Hint is an actionable suggestion shown to the user, if any.
	Hint string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return services.ErrParse
}
