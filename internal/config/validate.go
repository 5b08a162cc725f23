package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := ensurePositiveMap(map[string]int{
		"tools.timeout_seconds":   c.Tools.TimeoutSeconds,
		"fit.max_iterations":      c.Fit.MaxIterations,
		"vignetting.export_width": c.Vignetting.ExportWidth,
	}); err != nil {
		return err
	}
	if c.Fit.GradientThreshold <= 0 {
		return errors.New("fit.gradient_threshold must be positive")
	}
	// The pa model has four free parameters; fewer bins can never fit.
	if c.Vignetting.Bins < 4 {
		return errors.New("vignetting.bins must be at least 4")
	}
	switch c.Metadata.OnError {
	case OnErrorAbort, OnErrorSkip:
	default:
		return fmt.Errorf("metadata.on_error must be %q or %q, got %q", OnErrorAbort, OnErrorSkip, c.Metadata.OnError)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognised", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
