package lens

import (
	"cmp"
	"fmt"
	"slices"
)

// LensTypes lists the projection names lensfun accepts; "normal" is
// rectilinear and is omitted from the database entry.
var LensTypes = []string{
	"normal", "rectilinear", "fisheye", "panoramic", "equirectangular",
	"orthographic", "stereographic", "equisolid", "fisheye_thoby",
}

// Profile is the complete calibration record for one lens model.
type Profile struct {
	Model       string
	Maker       string
	Mount       string
	CropFactor  float64
	AspectRatio string
	Type        string
	Distortion  []DistortionEntry
	TCA         []TCAEntry
	Vignetting  []VignettingEntry
}

// DistortionEntry holds ptlens coefficients (a, b, c) or a single poly3 k1.
type DistortionEntry struct {
	Focal        float64
	Coefficients []float64
}

// Model returns the lensfun distortion model name for the entry.
func (d DistortionEntry) Model() string {
	if len(d.Coefficients) >= 3 {
		return "ptlens"
	}
	return "poly3"
}

// TCAEntry holds poly3 TCA coefficients for one focal length. BR and BB are
// only meaningful when Complex is set.
type TCAEntry struct {
	Focal   float64
	Complex bool
	BR      float64
	VR      float64
	BB      float64
	VB      float64
}

// VignettingEntry holds pa vignetting coefficients for one bucket.
type VignettingEntry struct {
	Focal    float64
	Aperture float64
	Distance float64
	K1       float64
	K2       float64
	K3       float64
}

// Validate checks the descriptive fields lensfun requires.
func (p *Profile) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("lens model required")
	}
	if p.CropFactor <= 0 {
		return fmt.Errorf("lens %q: cropfactor must be positive", p.Model)
	}
	if p.Type != "" && !slices.Contains(LensTypes, p.Type) {
		return fmt.Errorf("lens %q: unknown type %q", p.Model, p.Type)
	}
	for _, d := range p.Distortion {
		if n := len(d.Coefficients); n != 1 && n != 3 {
			return fmt.Errorf("lens %q: distortion at %smm needs 1 or 3 coefficients, got %d", p.Model, FormatFocal(d.Focal), n)
		}
	}
	return nil
}

// Sort orders every entry list by focal length, then aperture and distance.
func (p *Profile) Sort() {
	slices.SortStableFunc(p.Distortion, func(a, b DistortionEntry) int { return cmp.Compare(a.Focal, b.Focal) })
	slices.SortStableFunc(p.TCA, func(a, b TCAEntry) int { return cmp.Compare(a.Focal, b.Focal) })
	slices.SortStableFunc(p.Vignetting, func(a, b VignettingEntry) int {
		if c := cmp.Compare(a.Focal, b.Focal); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Aperture, b.Aperture); c != 0 {
			return c
		}
		return cmp.Compare(a.Distance, b.Distance)
	})
}
