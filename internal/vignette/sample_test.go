package vignette_test

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"lenscal/internal/fit"
	"lenscal/internal/lens"
	"lenscal/internal/vignette"
)

func flatField(width, height int, params []float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	cx, cy := width/2, height/2
	half := math.Hypot(float64(cx), float64(cy))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := math.Hypot(float64(x-cx), float64(y-cy)) / half
			img.SetGray16(x, y, color.Gray16{Y: uint16(fit.Vignetting.Eval(params, r))})
		}
	}
	return img
}

func TestSampleBinsAndFits(t *testing.T) {
	want := []float64{40000, -0.35, 0.05, 0}
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tiff.Encode(f, flatField(250, 188, want), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	img, err := vignette.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	profile, err := vignette.Sample(img, vignette.DefaultBins)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if len(profile.Points) != 250*188 {
		t.Fatalf("expected every pixel sampled, got %d", len(profile.Points))
	}
	if len(profile.Bins) != vignette.DefaultBins {
		t.Fatalf("expected %d bins, got %d", vignette.DefaultBins, len(profile.Bins))
	}
	for i := 1; i < len(profile.Bins); i++ {
		if profile.Bins[i].Y >= profile.Bins[i-1].Y {
			t.Fatalf("expected falling intensity, bin %d = %v after %v", i, profile.Bins[i].Y, profile.Bins[i-1].Y)
		}
	}
	if profile.Bins[len(profile.Bins)-1].X != 1 {
		t.Fatalf("last bin radius %v", profile.Bins[len(profile.Bins)-1].X)
	}

	res, err := fit.Fit(fit.Vignetting, profile.Bins, fit.Options{})
	if err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}
	if math.Abs(res.Coefficients[0]-want[0])/want[0] > 0.02 || math.Abs(res.Coefficients[1]-want[1]) > 0.08 {
		t.Fatalf("unexpected coefficients %v", res.Coefficients)
	}
}

func TestSampleDropsEmptyBins(t *testing.T) {
	// A 3x1 image only has radii 0 and 1.
	img := image.NewGray16(image.Rect(0, 0, 3, 1))
	profile, err := vignette.Sample(img, 16)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if len(profile.Bins) != 2 {
		t.Fatalf("expected two populated bins, got %+v", profile.Bins)
	}
	if _, err := vignette.Sample(image.NewGray16(image.Rect(0, 0, 1, 1)), 16); err == nil {
		t.Fatal("expected error for degenerate image")
	}
}

func TestSampleAveragesEvenBins(t *testing.T) {
	// In a 5x1 image the two pixels either side of the centre share a bin,
	// as do the two outermost ones.
	img := image.NewGray16(image.Rect(0, 0, 5, 1))
	for x, v := range []uint16{1000, 100, 50, 300, 3000} {
		img.SetGray16(x, 0, color.Gray16{Y: v})
	}
	profile, err := vignette.Sample(img, 3)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	want := []lens.SamplePoint{{X: 0, Y: 50}, {X: 0.5, Y: 200}, {X: 1, Y: 2000}}
	if len(profile.Bins) != len(want) {
		t.Fatalf("expected %d bins, got %+v", len(want), profile.Bins)
	}
	for i, bin := range profile.Bins {
		if bin != want[i] {
			t.Fatalf("bin %d: expected %+v, got %+v", i, want[i], bin)
		}
	}
}

func TestWriteDat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bins.dat")
	points := []lens.SamplePoint{{X: 0, Y: 30000.4}, {X: 0.5, Y: 29000}}
	if err := vignette.WriteDat(path, points); err != nil {
		t.Fatalf("WriteDat returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "0.000000 30000\n0.500000 29000\n"
	if string(data) != want {
		t.Fatalf("unexpected dat contents %q", strings.TrimSpace(string(data)))
	}
}
