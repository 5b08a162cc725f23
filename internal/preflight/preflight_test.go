package preflight_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lenscal/internal/preflight"
	"lenscal/internal/services"
	"lenscal/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRequirementsPerAction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := len(preflight.Requirements(cfg, preflight.ActionTag)); got != 1 {
		t.Fatalf("tag should need exiftool only, got %d tools", got)
	}
	reqs := preflight.Requirements(cfg, preflight.ActionTCA)
	if reqs[len(reqs)-1].Name != "gnuplot" || !reqs[len(reqs)-1].Optional {
		t.Fatalf("gnuplot should be optional for simple tca: %+v", reqs)
	}
	reqs = preflight.Requirements(testsupport.NewConfig(t, testsupport.WithComplexTCA()), preflight.ActionTCA)
	if reqs[len(reqs)-1].Optional {
		t.Fatal("gnuplot should be required for complex tca")
	}
}

func TestRunAllWithStubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	results := preflight.RunAll(cfg, preflight.ActionVignetting)
	if err := preflight.Err(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
}

func TestRunAllReportsMissingTool(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("exiftool", "darktable-cli"))
	cfg.Tools.Gnuplot = "lenscal-missing-gnuplot"
	cfg.Tools.TCACorrect = "lenscal-missing-tca"

	if err := preflight.Err(preflight.RunAll(cfg, preflight.ActionDistortion)); err != nil {
		t.Fatalf("distortion must not need gnuplot: %v", err)
	}
	if err := preflight.Err(preflight.RunAll(cfg, preflight.ActionTCA)); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing tca_correct, got %v", err)
	}
	if err := preflight.Err(preflight.RunAll(cfg, "")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
