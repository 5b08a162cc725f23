package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"lenscal/internal/lens"
)

// Calibration directories created by Init.
const (
	DistortionDir = "distortion"
	TCADir        = "tca"
	VignettingDir = "vignetting"
	ExportDir     = "exported"
)

// Report and bundle names written at the workspace root.
const (
	TCAReport        = "tca.pdf"
	VignettingReport = "vignetting.pdf"
	BundleName       = "lensfun_calibration.tar.xz"
)

// Workspace is a calibration directory.
type Workspace struct {
	Root string
}

// New returns the workspace rooted at root.
func New(root string) Workspace {
	return Workspace{Root: root}
}

// Path joins elements onto the workspace root.
func (w Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Root}, elem...)...)
}

// ExportPath returns the export directory of a calibration directory.
func (w Workspace) ExportPath(dir string) string {
	return w.Path(dir, ExportDir)
}

// Init creates the calibration directories and returns the ones it created.
// An existing file with one of the directory names is an error.
func (w Workspace) Init() ([]string, error) {
	dirs := []string{DistortionDir, TCADir, VignettingDir}
	for _, dir := range dirs {
		info, err := os.Stat(w.Path(dir))
		if err == nil && !info.IsDir() {
			return nil, fmt.Errorf("%s is a file, can't create directory", w.Path(dir))
		}
	}
	var created []string
	for _, dir := range dirs {
		path := w.Path(dir)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", path, err)
		}
		created = append(created, path)
	}
	return created, nil
}

// Require checks that a calibration directory exists.
func (w Workspace) Require(dir string) error {
	info, err := os.Stat(w.Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no %s directory in %s; run \"lenscal init\" first", dir, w.Root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.Path(dir))
	}
	return nil
}

// EnsureExportDir creates and returns the export directory of dir.
func (w Workspace) EnsureExportDir(dir string) (string, error) {
	path := w.ExportPath(dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	return path, nil
}

// VignettingSet is one directory of vignetting shots at a single distance.
type VignettingSet struct {
	Dir string
	// Distance is in metres; +Inf for the vignetting directory itself.
	Distance float64
}

// VignettingSets lists vignetting/ (at infinity) followed by its numeric
// subdirectories in ascending distance. Subdirectories whose name is not a
// distance are returned in skipped.
func (w Workspace) VignettingSets() (sets []VignettingSet, skipped []string, err error) {
	root := w.Path(VignettingDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s: %w", root, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == ExportDir || entry.Name()[0] == '.' {
			continue
		}
		d, parseErr := lens.ParseDistance(entry.Name())
		if parseErr != nil || math.IsInf(d, 1) {
			skipped = append(skipped, filepath.Join(root, entry.Name()))
			continue
		}
		sets = append(sets, VignettingSet{Dir: filepath.Join(root, entry.Name()), Distance: d})
	}
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].Distance < sets[j].Distance })
	sets = append([]VignettingSet{{Dir: root, Distance: math.Inf(1)}}, sets...)
	return sets, skipped, nil
}

// ExportStem returns the base name used for exports of a source image.
// Shots at a finite distance carry the distance so sets never collide in the
// shared export directory.
func ExportStem(source string, distance float64) string {
	base := filepath.Base(source)
	stem := base[:len(base)-len(filepath.Ext(base))]
	if math.IsInf(distance, 1) {
		return stem
	}
	return fmt.Sprintf("%s_%sm", stem, lens.FormatDistance(distance))
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
