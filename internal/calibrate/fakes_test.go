package calibrate_test

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"

	"lenscal/internal/calibrate"
	"lenscal/internal/config"
	"lenscal/internal/fit"
	"lenscal/internal/lens"
	"lenscal/internal/services/darktable"
	"lenscal/internal/services/exiftool"
	"lenscal/internal/services/gnuplot"
	"lenscal/internal/services/tcacorrect"
	"lenscal/internal/testsupport"
)

var flatFieldParams = []float64{40000, -0.35, 0.05, 0}

type fakeMetadata struct {
	batches map[string][]lens.ImageSample
	tagged  []string
}

func (f *fakeMetadata) Read(_ context.Context, dir string) (exiftool.Batch, error) {
	return exiftool.Batch{Samples: append([]lens.ImageSample(nil), f.batches[dir]...)}, nil
}

func (f *fakeMetadata) Tag(_ context.Context, path string, _ exiftool.Override) error {
	f.tagged = append(f.tagged, path)
	return nil
}

type fakeExporter struct {
	t       *testing.T
	exports []darktable.ExportRequest
}

func (f *fakeExporter) Export(_ context.Context, req darktable.ExportRequest) (bool, error) {
	if _, err := os.Stat(req.Output); err == nil {
		return false, nil
	}
	f.exports = append(f.exports, req)
	if req.Purpose == darktable.Vignetting && strings.HasSuffix(req.Output, ".tif") {
		writeFlatField(f.t, req.Output)
		return true, nil
	}
	if err := os.WriteFile(req.Output, []byte("export"), 0o644); err != nil {
		f.t.Fatalf("write export: %v", err)
	}
	return true, nil
}

type fakeTCA struct {
	calls int
}

func (f *fakeTCA) Correct(_ context.Context, input string, complexTCA bool) (tcacorrect.Coefficients, error) {
	f.calls++
	return tcacorrect.Coefficients{BR: 0.0001, VR: 1.0002, BB: -0.0001, VB: 0.9998, Complex: complexTCA, Raw: "-r 0:0:0.0001:1.0002 -b 0:0:-0.0001:0.9998"}, nil
}

type fakePlotter struct {
	t     *testing.T
	plots []gnuplot.Plot
}

func (f *fakePlotter) Render(_ context.Context, scriptPath string, plot gnuplot.Plot) error {
	f.plots = append(f.plots, plot)
	if err := os.WriteFile(scriptPath, []byte(plot.Script()), 0o644); err != nil {
		f.t.Fatalf("write script: %v", err)
	}
	page, err := document.CreateSinglePage(plot.OutputPath(), &pdf.Rectangle{URx: 420, URy: 297}, pdf.V1_7, nil)
	if err != nil {
		f.t.Fatalf("create page: %v", err)
	}
	if err := page.Close(); err != nil {
		f.t.Fatalf("close page: %v", err)
	}
	return nil
}

func writeFlatField(t *testing.T, path string) {
	t.Helper()
	const width, height = 120, 90
	img := image.NewGray16(image.Rect(0, 0, width, height))
	cx, cy := width/2, height/2
	half := math.Hypot(float64(cx), float64(cy))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := math.Hypot(float64(x-cx), float64(y-cy)) / half
			img.SetGray16(x, y, color.Gray16{Y: uint16(fit.Vignetting.Eval(flatFieldParams, r))})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tiff: %v", err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
}

type harness struct {
	cfg      *config.Config
	runner   *calibrate.Runner
	metadata *fakeMetadata
	exporter *fakeExporter
	tca      *fakeTCA
	plotter  *fakePlotter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	h := &harness{
		cfg:      cfg,
		metadata: &fakeMetadata{batches: map[string][]lens.ImageSample{}},
		exporter: &fakeExporter{t: t},
		tca:      &fakeTCA{},
		plotter:  &fakePlotter{t: t},
	}
	runner, err := calibrate.New(cfg, st,
		calibrate.WithMetadataReader(h.metadata),
		calibrate.WithExporter(h.exporter),
		calibrate.WithTCAMeasurer(h.tca),
		calibrate.WithPlotter(h.plotter),
	)
	if err != nil {
		t.Fatalf("calibrate.New: %v", err)
	}
	h.runner = runner
	if _, err := runner.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return h
}

func (h *harness) path(elem ...string) string {
	return filepath.Join(append([]string{h.cfg.Paths.WorkDir}, elem...)...)
}

func sample(path, model string, focal, aperture float64) lens.ImageSample {
	return lens.ImageSample{
		Path:        path,
		LensModel:   model,
		LensMaker:   "Olympus",
		Mount:       "Micro 4/3 System",
		FocalLength: focal,
		Aperture:    aperture,
		CropFactor:  2,
		AspectRatio: "4:3",
		Distance:    math.Inf(1),
	}
}
