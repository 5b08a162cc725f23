package lens_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lenscal/internal/lens"
)

func TestValidateRejectsMissingFields(t *testing.T) {
	good := lens.ImageSample{Path: "a.ORF", LensModel: "Zuiko 12-40mm", FocalLength: 12, Aperture: 2.8}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}

	cases := map[string]lens.ImageSample{
		"lens":     {FocalLength: 12, Aperture: 2.8},
		"focal":    {LensModel: "x", Aperture: 2.8},
		"aperture": {LensModel: "x", FocalLength: 12},
		"nan":      {LensModel: "x", FocalLength: math.NaN(), Aperture: 2.8},
	}
	for name, sample := range cases {
		if err := sample.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestGroupByBucketOrdersDeterministically(t *testing.T) {
	inf := math.Inf(1)
	samples := []lens.ImageSample{
		{Path: "c", LensModel: "B", FocalLength: 12, Aperture: 4, Distance: inf},
		{Path: "a", LensModel: "A", FocalLength: 40, Aperture: 2.8, Distance: inf},
		{Path: "b", LensModel: "A", FocalLength: 12, Aperture: 2.8, Distance: 2},
		{Path: "d", LensModel: "A", FocalLength: 12, Aperture: 2.8, Distance: inf},
		{Path: "e", LensModel: "A", FocalLength: 12, Aperture: 2.8, Distance: 2},
	}
	groups := lens.GroupByBucket(samples)

	var got [][]string
	for _, g := range groups {
		var paths []string
		for _, s := range g.Samples {
			paths = append(paths, s.Path)
		}
		got = append(got, paths)
	}
	want := [][]string{{"b", "e"}, {"d"}, {"a"}, {"c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected grouping (-want +got):\n%s", diff)
	}
}

func TestGroupByLens(t *testing.T) {
	models, groups := lens.GroupByLens([]lens.ImageSample{
		{LensModel: "Z"}, {LensModel: "A"}, {LensModel: "Z"},
	})
	if diff := cmp.Diff([]string{"A", "Z"}, models); diff != "" {
		t.Fatalf("unexpected models (-want +got):\n%s", diff)
	}
	if len(groups["Z"]) != 2 {
		t.Fatalf("expected two Z samples, got %d", len(groups["Z"]))
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"P1.ORF", "img.nef", "x.jpeg", "scan.TIF"} {
		if !lens.IsImageFile(name) {
			t.Fatalf("expected %q to be an image", name)
		}
	}
	for _, name := range []string{"notes.md", "P1.ORF.xmp", "archive"} {
		if lens.IsImageFile(name) {
			t.Fatalf("expected %q not to be an image", name)
		}
	}
	if !lens.IsIgnored(".DS_Store") || !lens.IsIgnored("P1.ORF.xmp") || lens.IsIgnored("P1.ORF") {
		t.Fatal("unexpected sidecar classification")
	}
	for _, name := range []string{"notes.txt", "report.pdf", "P1.tca", "P1.vig"} {
		if lens.IsIgnored(name) {
			t.Fatalf("expected %q to be reported, not ignored", name)
		}
	}
}

func TestResolveMakerMount(t *testing.T) {
	cases := []struct {
		model, lensMake, maker, mount string
	}{
		{"Olympus Zuiko Digital 11-22mm F2.8-3.5", "", "Olympus Zuiko Digital", "4/3 System"},
		{"Olympus OM System ZUIKO Auto-S 50mm F1:1.8", "", "Olympus Zuiko OM System", "Olympus OM"},
		{"FE 16-35mm F2.8 GM", "Sony", "Sony", lens.Unknown},
		{"Manual", "None", lens.Unknown, lens.Unknown},
	}
	for _, tc := range cases {
		maker, mount := lens.ResolveMakerMount(tc.model, tc.lensMake)
		if maker != tc.maker || mount != tc.mount {
			t.Fatalf("ResolveMakerMount(%q, %q) = %q, %q; want %q, %q", tc.model, tc.lensMake, maker, mount, tc.maker, tc.mount)
		}
	}
}

func TestDistanceFormatting(t *testing.T) {
	if got := lens.FormatDistance(math.Inf(1)); got != "inf" {
		t.Fatalf("unexpected infinite distance %q", got)
	}
	d, err := lens.ParseDistance("2.5")
	if err != nil || d != 2.5 {
		t.Fatalf("ParseDistance: %v %v", d, err)
	}
	if d, err := lens.ParseDistance("inf"); err != nil || !math.IsInf(d, 1) {
		t.Fatalf("ParseDistance inf: %v %v", d, err)
	}
	if _, err := lens.ParseDistance("-1"); err == nil {
		t.Fatal("expected error for negative distance")
	}
	if got := lens.FormatFocal(12); got != "12.0" {
		t.Fatalf("unexpected focal formatting %q", got)
	}
}

func TestProfileValidateAndSort(t *testing.T) {
	p := lens.Profile{
		Model:      "A",
		CropFactor: 2,
		Type:       "normal",
		Distortion: []lens.DistortionEntry{{Focal: 40, Coefficients: []float64{0.01}}, {Focal: 12, Coefficients: []float64{0, 0.01, -0.02}}},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid profile, got %v", err)
	}
	p.Sort()
	if p.Distortion[0].Focal != 12 || p.Distortion[0].Model() != "ptlens" || p.Distortion[1].Model() != "poly3" {
		t.Fatalf("unexpected distortion order: %+v", p.Distortion)
	}

	p.Distortion = append(p.Distortion, lens.DistortionEntry{Focal: 20, Coefficients: []float64{1, 2}})
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for two distortion coefficients")
	}
	p.Distortion = nil
	p.Type = "tilt"
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for unknown lens type")
	}
}
