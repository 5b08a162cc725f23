package preflight

import (
	"errors"
	"fmt"
	"strings"

	"lenscal/internal/config"
	"lenscal/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks for action: workspace access and every
// required tool. Optional tools that are missing pass with a note.
func RunAll(cfg *config.Config, action string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Workspace", cfg.Paths.WorkDir)}
	for _, status := range CheckSystemDeps(cfg, action) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
		} else if status.Optional {
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		}
		results = append(results, result)
	}
	return results
}

// Err folds failed results into one configuration error, or nil when every
// check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), errors.New("preflight failed"))
}
