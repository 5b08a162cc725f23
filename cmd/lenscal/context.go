package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lenscal/internal/calibrate"
	"lenscal/internal/config"
	"lenscal/internal/logging"
	"lenscal/internal/preflight"
	"lenscal/internal/store"
)

type globalFlags struct {
	config    string
	dir       string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if dir := strings.TrimSpace(c.flags.dir); dir != "" {
			expanded, err := config.ExpandPath(dir)
			if err != nil {
				c.configErr = fmt.Errorf("resolve --dir: %w", err)
				return
			}
			cfg.Paths.WorkDir = expanded
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if format := strings.TrimSpace(c.flags.logFormat); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withRunner builds a calibrate.Runner and opens the results store for the
// duration of fn when needStore is set. Actions that drive external tools
// must pass their preflight checks first; an empty action skips them.
func (c *commandContext) withRunner(action string, needStore bool, fn func(*calibrate.Runner) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	if action != "" {
		if err := preflight.Err(preflight.RunAll(cfg, action)); err != nil {
			return err
		}
	}

	var st *store.Store
	if needStore {
		st, err = store.Open(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close results store", logging.Error(cerr))
			}
		}()
	}

	runner, err := calibrate.New(cfg, st, calibrate.WithLogger(logger))
	if err != nil {
		return err
	}
	return fn(runner)
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// failureSummary renders skipped-image errors one per line.
func failureSummary(failures []error) string {
	if len(failures) == 0 {
		return ""
	}
	lines := make([]string, 0, len(failures)+1)
	lines = append(lines, fmt.Sprintf("Skipped %d unreadable image(s):", len(failures)))
	for _, err := range failures {
		lines = append(lines, "  "+err.Error())
	}
	return strings.Join(lines, "\n")
}

var errNoArgs = errors.New("at least one image is required")
