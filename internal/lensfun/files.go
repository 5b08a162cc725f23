package lensfun

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lenscal/internal/fileutil"
	"lenscal/internal/lens"
	"lenscal/internal/textutil"
)

// timestampLayout sorts lexically in creation order.
const timestampLayout = "20060102-150405"

// FileName returns the XML file name for profiles: the first lens model
// turned into a file stem, then a timestamp.
func FileName(profiles []lens.Profile, now time.Time) string {
	model := ""
	if len(profiles) > 0 {
		model = profiles[0].Model
	}
	return fmt.Sprintf("%s_%s.xml", textutil.LensFileStem(model), now.Format(timestampLayout))
}

// Write renders profiles into dir and returns the path written.
func Write(dir string, profiles []lens.Profile, now time.Time) (string, error) {
	if len(profiles) == 0 {
		return "", errors.New("no lens profiles to write")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, profiles); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(profiles, now))
	if err := fileutil.WriteAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write lensfun xml: %w", err)
	}
	return path, nil
}

// Install copies a generated XML file into the lensfun user database
// directory, creating it when needed.
func Install(path, lensfunDir string) (string, error) {
	if strings.TrimSpace(lensfunDir) == "" {
		return "", errors.New("lensfun directory not configured")
	}
	if err := os.MkdirAll(lensfunDir, 0o755); err != nil {
		return "", fmt.Errorf("create lensfun directory: %w", err)
	}
	target := filepath.Join(lensfunDir, filepath.Base(path))
	if err := fileutil.CopyFileVerified(path, target); err != nil {
		return "", fmt.Errorf("install %s: %w", filepath.Base(path), err)
	}
	return target, nil
}

// Newest returns the most recently written lensfun XML file in dir, or ""
// when there is none.
func Newest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].mod.Equal(candidates[j].mod) {
			return candidates[i].mod.After(candidates[j].mod)
		}
		return candidates[i].path > candidates[j].path
	})
	return candidates[0].path, nil
}
