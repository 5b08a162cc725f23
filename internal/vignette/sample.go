package vignette

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sort"

	"golang.org/x/image/tiff"

	"lenscal/internal/lens"
	"lenscal/internal/services"
)

// DefaultBins is the number of radial bins used when none is configured.
const DefaultBins = 16

// maxRadius is the normalized radius beyond which pixels are ignored. The
// radius is normalized by the half diagonal, so 1 reaches the corners.
const maxRadius = 1.0

// Profile is the radial intensity profile of one flat-field image.
type Profile struct {
	// Points holds every sampled pixel as (radius, intensity).
	Points []lens.SamplePoint
	// Bins holds the median intensity per radial bin. Empty bins are dropped.
	Bins []lens.SamplePoint
}

// Load decodes a TIFF export.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "vignette", "open export", path, err)
	}
	defer f.Close()
	img, err := tiff.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "vignette", "decode tiff", path, err)
	}
	return img, nil
}

// Sample converts img to luminance and bins its pixels by distance from the
// image centre.
func Sample(img image.Image, bins int) (Profile, error) {
	if bins < 2 {
		return Profile{}, services.Wrap(services.ErrValidation, "vignette", "sample", fmt.Sprintf("need at least 2 bins, got %d", bins), nil)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	cx, cy := width/2, height/2
	halfDiagonal := math.Hypot(float64(cx), float64(cy))
	if halfDiagonal == 0 {
		return Profile{}, services.Wrap(services.ErrValidation, "vignette", "sample", fmt.Sprintf("image %dx%d is too small", width, height), nil)
	}

	profile := Profile{Points: make([]lens.SamplePoint, 0, width*height)}
	binned := make([][]float64, bins)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			radius := math.Hypot(float64(x-cx), float64(y-cy)) / halfDiagonal
			if radius > maxRadius {
				continue
			}
			gray := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			intensity := float64(gray.Y)
			profile.Points = append(profile.Points, lens.SamplePoint{X: radius, Y: intensity})
			// The first and last bins only cover half a bin width. That skews
			// them slightly, which is harmless at the centre and underestimates
			// vignetting at the rim.
			idx := int(math.Round(radius / maxRadius * float64(bins-1)))
			binned[idx] = append(binned[idx], intensity)
		}
	}

	for i, values := range binned {
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		profile.Bins = append(profile.Bins, lens.SamplePoint{
			X: float64(i) / float64(bins-1) * maxRadius,
			Y: median(values),
		})
	}
	return profile, nil
}

// median of sorted, non-empty values. Even counts average the middle pair.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// WriteDat writes points as whitespace-separated columns for gnuplot.
func WriteDat(path string, points []lens.SamplePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "vignette", "write data", path, err)
	}
	w := bufio.NewWriter(f)
	for _, p := range points {
		fmt.Fprintf(w, "%f %d\n", p.X, int64(math.Round(p.Y)))
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return services.Wrap(services.ErrExternalTool, "vignette", "write data", path, err)
	}
	return f.Close()
}
