package fit

import (
	"fmt"

	"lenscal/internal/services"
)

// DivergenceError reports that a model could not be fitted to its samples.
type DivergenceError struct {
	Model  Model
	Reason string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("fit %s diverged: %s", e.Model, e.Reason)
}

func (e *DivergenceError) Unwrap() error {
	return services.ErrFitDivergence
}

func diverged(model Model, format string, args ...any) error {
	return &DivergenceError{Model: model, Reason: fmt.Sprintf(format, args...)}
}
