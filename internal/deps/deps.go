package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external tool and the configured command that runs it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional tools are reported but do not block an action.
	Optional bool
}

// Status is the lookup result for one Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable, empty when unavailable.
	Path      string
	Available bool
	Detail    string
}

// CheckBinaries resolves each requirement's command on PATH. Commands given
// as paths are checked for an executable file at that location.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	switch {
	case err == nil:
		status.Path = path
		status.Available = true
	case errors.Is(err, exec.ErrNotFound):
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
	default:
		status.Detail = fmt.Sprintf("binary %q unusable: %v", req.Command, err)
	}
	return status
}

// MissingRequired returns the unavailable statuses that are not optional.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
