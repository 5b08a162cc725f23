package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.Metadata.OnError = strings.ToLower(strings.TrimSpace(c.Metadata.OnError))
	if c.Metadata.OnError == "" {
		c.Metadata.OnError = defaultMetadataErrorPolicy
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv(workDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.LensfunDir = orDefault(c.Paths.LensfunDir, defaultLensfunDir)
	if c.Paths.LensfunDir, err = expandPath(c.Paths.LensfunDir); err != nil {
		return fmt.Errorf("paths.lensfun_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Exiftool = orDefault(c.Tools.Exiftool, defaultExiftool)
	c.Tools.DarktableCLI = orDefault(c.Tools.DarktableCLI, defaultDarktableCLI)
	c.Tools.TCACorrect = orDefault(c.Tools.TCACorrect, defaultTCACorrect)
	c.Tools.Gnuplot = orDefault(c.Tools.Gnuplot, defaultGnuplot)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
