package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"lenscal/internal/config"
	"lenscal/internal/deps"
)

// Calibration actions that invoke external tools.
const (
	ActionDistortion = "distortion"
	ActionTCA        = "tca"
	ActionVignetting = "vignetting"
	ActionTag        = "tag"
	ActionSamples    = "samples"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Requirements lists the external tools lenscal drives. With an action, only
// the tools that action needs are returned; gnuplot is optional for tca
// unless complex fitting is enabled.
func Requirements(cfg *config.Config, action string) []deps.Requirement {
	exiftool := deps.Requirement{Name: "exiftool", Command: cfg.Tools.Exiftool, Description: "Reads lens metadata and writes lens tag overrides"}
	darktable := deps.Requirement{Name: "darktable-cli", Command: cfg.Tools.DarktableCLI, Description: "Exports raw files to TIFF, PPM and JPEG"}
	tca := deps.Requirement{Name: "tca_correct", Command: cfg.Tools.TCACorrect, Description: "Measures transverse chromatic aberration (hugin)"}
	gnuplot := deps.Requirement{Name: "gnuplot", Command: cfg.Tools.Gnuplot, Description: "Renders vignetting and TCA plot pages"}

	switch action {
	case ActionDistortion:
		return []deps.Requirement{exiftool, darktable}
	case ActionTCA:
		gnuplot.Optional = !cfg.TCA.Complex
		return []deps.Requirement{exiftool, darktable, tca, gnuplot}
	case ActionVignetting:
		return []deps.Requirement{exiftool, darktable, gnuplot}
	case ActionTag, ActionSamples:
		return []deps.Requirement{exiftool}
	}
	gnuplot.Optional = true
	return []deps.Requirement{exiftool, darktable, tca, gnuplot}
}

// CheckSystemDeps evaluates the tools needed by action, or all tools when
// action is empty.
func CheckSystemDeps(cfg *config.Config, action string) []deps.Status {
	return deps.CheckBinaries(Requirements(cfg, action))
}
