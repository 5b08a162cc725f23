package lensconf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"lenscal/internal/fileutil"
	"lenscal/internal/lens"
	"lenscal/internal/logging"
	"lenscal/internal/services"
)

// FileName is the lenses file name inside the workspace.
const FileName = "lenses.toml"

const header = `# lenscal lens descriptions
#
# Fill in the values metadata could not provide:
#   maker        lens manufacturer, e.g. "Sony"
#   mount        mount system, e.g. "Sony E"
#   cropfactor   crop factor of the camera, 1.0 for full frame
#   aspect_ratio sensor aspect ratio, e.g. "3:2"
#   type         projection; "normal" for rectilinear lenses. Others:
#                fisheye, panoramic, equirectangular, orthographic,
#                stereographic, equisolid, fisheye_thoby
#
# Distortion coefficients are the ptlens a, b, c values from hugin, or a
# single poly3 k1. See
# https://pixls.us/articles/create-lens-calibration-data-for-lensfun/

`

// File is the decoded lenses file.
type File struct {
	Lenses []Lens `toml:"lens"`
}

// Lens describes one lens model.
type Lens struct {
	Model       string       `toml:"model"`
	Maker       string       `toml:"maker"`
	Mount       string       `toml:"mount"`
	CropFactor  float64      `toml:"cropfactor"`
	AspectRatio string       `toml:"aspect_ratio"`
	Type        string       `toml:"type"`
	Distortion  []Distortion `toml:"distortion"`
}

// Distortion holds the coefficients measured at one focal length.
type Distortion struct {
	Focal        float64   `toml:"focal"`
	Coefficients []float64 `toml:"coefficients"`
}

// Fits maps lens model and formatted focal length to fitted ptlens
// coefficients; entries missing from it are written as zeros.
type Fits map[string]map[string][]float64

// Template builds a lenses file from distortion samples. The first sample of
// each lens (in path order) supplies the descriptive fields.
func Template(samples []lens.ImageSample, fits Fits, logger *slog.Logger) File {
	logger = logging.NewComponentLogger(logger, "lensconf")
	models, groups := lens.GroupByLens(samples)
	file := File{Lenses: make([]Lens, 0, len(models))}
	for _, model := range models {
		group := groups[model]
		first := group[0]
		entry := Lens{
			Model:       model,
			Maker:       orUnknown(first.LensMaker),
			Mount:       orUnknown(first.Mount),
			CropFactor:  first.CropFactor,
			AspectRatio: first.AspectRatio,
			Type:        "normal",
		}
		if !(entry.CropFactor > 0) || math.IsInf(entry.CropFactor, 0) {
			logger.Warn("crop factor unknown, writing 1.0; edit lenses.toml", logging.String("lens", model))
			entry.CropFactor = 1.0
		}

		var focals []float64
		for _, s := range group {
			if !slices.Contains(focals, s.FocalLength) {
				focals = append(focals, s.FocalLength)
			}
		}
		slices.Sort(focals)
		for _, focal := range focals {
			coefficients := []float64{0, 0, 0}
			if fitted, ok := fits[model][lens.FormatFocal(focal)]; ok {
				coefficients = append([]float64(nil), fitted...)
			}
			entry.Distortion = append(entry.Distortion, Distortion{Focal: focal, Coefficients: coefficients})
		}
		file.Lenses = append(file.Lenses, entry)
	}
	return file
}

// Load decodes and validates the lenses file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, services.Wrap(services.ErrNotFound, "lensconf", "load", path+" missing; run \"lenscal distortion\" first", err)
		}
		return File{}, fmt.Errorf("read lenses file: %w", err)
	}
	var file File
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return File{}, services.Wrap(services.ErrConfiguration, "lensconf", "parse", path, err)
	}
	if err := file.Validate(); err != nil {
		return File{}, services.Wrap(services.ErrConfiguration, "lensconf", "validate", path, err)
	}
	return file, nil
}

// Save writes file to path atomically. Existing files are left alone unless
// overwrite is set.
func Save(path string, file File, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	body, err := toml.Marshal(file)
	if err != nil {
		return false, fmt.Errorf("encode lenses file: %w", err)
	}
	data := append([]byte(header), body...)
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write lenses file: %w", err)
	}
	return true, nil
}

// Validate checks lens entries for duplicates and unusable values.
func (f File) Validate() error {
	seen := map[string]struct{}{}
	for i, l := range f.Lenses {
		model := strings.TrimSpace(l.Model)
		if model == "" {
			return fmt.Errorf("lens %d: model required", i+1)
		}
		if _, dup := seen[model]; dup {
			return fmt.Errorf("lens %q listed twice", model)
		}
		seen[model] = struct{}{}
		profile := l.Profile()
		if err := profile.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the entry for model.
func (f File) Lookup(model string) (Lens, bool) {
	for _, l := range f.Lenses {
		if strings.TrimSpace(l.Model) == model {
			return l, true
		}
	}
	return Lens{}, false
}

// Profile converts the entry to a lens profile without TCA or vignetting
// data. A blank type means "normal".
func (l Lens) Profile() lens.Profile {
	p := lens.Profile{
		Model:       strings.TrimSpace(l.Model),
		Maker:       orUnknown(l.Maker),
		Mount:       orUnknown(l.Mount),
		CropFactor:  l.CropFactor,
		AspectRatio: strings.TrimSpace(l.AspectRatio),
		Type:        strings.ToLower(strings.TrimSpace(l.Type)),
	}
	if p.Type == "" {
		p.Type = "normal"
	}
	for _, d := range l.Distortion {
		p.Distortion = append(p.Distortion, lens.DistortionEntry{
			Focal:        d.Focal,
			Coefficients: append([]float64(nil), d.Coefficients...),
		})
	}
	return p
}

func orUnknown(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return lens.Unknown
	}
	return value
}
