package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir    string `toml:"work_dir"`
	LogDir     string `toml:"log_dir"`
	LensfunDir string `toml:"lensfun_dir"`
}

// Tools names the external binaries lenscal drives.
type Tools struct {
	Exiftool       string `toml:"exiftool"`
	DarktableCLI   string `toml:"darktable_cli"`
	TCACorrect     string `toml:"tca_correct"`
	Gnuplot        string `toml:"gnuplot"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Metadata contains configuration for the exiftool batch reader.
type Metadata struct {
	// OnError is "abort" (stop at the first bad file) or "skip".
	OnError string `toml:"on_error"`
}

// Fit contains optimizer limits for curve fitting.
type Fit struct {
	MaxIterations     int     `toml:"max_iterations"`
	GradientThreshold float64 `toml:"gradient_threshold"`
}

// Vignetting contains sampling parameters for vignetting calibration.
type Vignetting struct {
	Bins        int `toml:"bins"`
	ExportWidth int `toml:"export_width"`
}

// TCA contains configuration for chromatic aberration calibration.
type TCA struct {
	Complex bool `toml:"complex"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lenscal.
//
// Configuration sections by subsystem:
//   - Paths: calibration workspace, log directory and lensfun user database
//   - Tools: external binaries and their timeout
//   - Metadata: batch failure policy for the metadata reader
//   - Fit: optimizer iteration budget and convergence threshold
//   - Vignetting: radial bin count and export width
//   - TCA: complex (br/bb) polynomial fitting
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Metadata   Metadata   `toml:"metadata"`
	Fit        Fit        `toml:"fit"`
	Vignetting Vignetting `toml:"vignetting"`
	TCA        TCA        `toml:"tca"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lenscal.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory when one is configured.
// The workspace itself is created by "lenscal init", not here.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// StateDir returns the directory holding lenscal's own workspace state.
func (c *Config) StateDir() string {
	return filepath.Join(c.Paths.WorkDir, stateDirName)
}

// ResultsPath returns the location of the results database.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.StateDir(), "results.db")
}

// LockPath returns the workspace lock file guarding mutating actions.
func (c *Config) LockPath() string {
	return filepath.Join(c.StateDir(), "lock")
}

// ToolTimeout returns the per-invocation limit for external tools.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// SkipBadFiles reports whether the metadata reader should drop failing files
// instead of aborting the batch.
func (c *Config) SkipBadFiles() bool {
	return c.Metadata.OnError == OnErrorSkip
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
