package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lenscal/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LENSCAL_WORKDIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "lenscal", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) {
		t.Fatalf("expected absolute work dir, got %q", cfg.Paths.WorkDir)
	}
	if want := filepath.Join(tempHome, ".local", "share", "lensfun"); cfg.Paths.LensfunDir != want {
		t.Fatalf("unexpected lensfun dir: got %q want %q", cfg.Paths.LensfunDir, want)
	}
	if want := filepath.Join(cfg.Paths.WorkDir, ".lenscal", "results.db"); cfg.ResultsPath() != want {
		t.Fatalf("unexpected results path: %q", cfg.ResultsPath())
	}
	if cfg.Tools.Exiftool != "exiftool" {
		t.Fatalf("unexpected exiftool binary: %q", cfg.Tools.Exiftool)
	}
	if cfg.SkipBadFiles() {
		t.Fatal("expected abort-on-first-error by default")
	}
	if cfg.Vignetting.Bins != 16 {
		t.Fatalf("unexpected bin count: %d", cfg.Vignetting.Bins)
	}
	if cfg.Fit.MaxIterations != config.Default().Fit.MaxIterations {
		t.Fatalf("unexpected iteration budget: %d", cfg.Fit.MaxIterations)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.LogDir); err != nil || !info.IsDir() {
		t.Fatalf("expected log directory %q to exist: %v", cfg.Paths.LogDir, err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lenscal.toml")
	t.Setenv("LENSCAL_WORKDIR", "")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Metadata struct {
			OnError string `toml:"on_error"`
		} `toml:"metadata"`
		TCA struct {
			Complex bool `toml:"complex"`
		} `toml:"tca"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "calib")
	custom.Metadata.OnError = "SKIP"
	custom.TCA.Complex = true
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "calib") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if !cfg.SkipBadFiles() {
		t.Fatalf("expected skip policy, got %q", cfg.Metadata.OnError)
	}
	if !cfg.TCA.Complex {
		t.Fatal("expected complex TCA enabled")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestWorkDirEnvOverridesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lenscal.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nwork_dir = \"/from/file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envDir := filepath.Join(tempDir, "from-env")
	t.Setenv("LENSCAL_WORKDIR", envDir)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.WorkDir != envDir {
		t.Fatalf("expected work dir from env, got %q", cfg.Paths.WorkDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "lenscal.toml")
	if err := os.WriteFile(configPath, []byte("[fit]\nmax_iteration = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "on_error") {
		t.Fatalf("sample config missing metadata policy: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	defaults := config.Default()
	if cfg.Vignetting != defaults.Vignetting {
		t.Fatalf("sample vignetting section drifted from defaults: %+v", cfg.Vignetting)
	}
	if cfg.Tools != defaults.Tools {
		t.Fatalf("sample tools section drifted from defaults: %+v", cfg.Tools)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"timeout":       func(c *config.Config) { c.Tools.TimeoutSeconds = 0 },
		"iterations":    func(c *config.Config) { c.Fit.MaxIterations = -1 },
		"gradient":      func(c *config.Config) { c.Fit.GradientThreshold = 0 },
		"bins":          func(c *config.Config) { c.Vignetting.Bins = 3 },
		"width":         func(c *config.Config) { c.Vignetting.ExportWidth = 0 },
		"policy":        func(c *config.Config) { c.Metadata.OnError = "retry" },
		"logging level": func(c *config.Config) { c.Logging.Level = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
