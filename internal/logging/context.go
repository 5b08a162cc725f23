package logging

import (
	"context"
	"log/slog"

	"lenscal/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldAction is the standardized structured logging key for calibration actions.
	FieldAction = "action"
	// FieldImage is the standardized structured logging key for source image paths.
	FieldImage = "image"
	// FieldErrorKind carries the services.Kind classification of a failure.
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if action, ok := services.ActionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAction, action))
	}
	if image, ok := services.ImageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldImage, image))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// Failure returns the attributes logged alongside a failed operation.
func Failure(err error) []any {
	return Args(Error(err), String(FieldErrorKind, services.Kind(err)))
}
