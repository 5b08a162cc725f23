package gnuplot_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lenscal/internal/services"
	"lenscal/internal/services/gnuplot"
)

type stubExecutor struct {
	args []string
	err  error
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	s.args = append([]string(nil), args...)
	return nil, []byte("line 3: undefined variable"), s.err
}

func TestVignettingPlotScript(t *testing.T) {
	plot := gnuplot.VignettingPlot{
		Output:       "V1.pdf",
		Source:       "vignetting/V1.ORF",
		LensModel:    `Lens "Pro" 12mm`,
		Focal:        12,
		Aperture:     2.8,
		Distance:     math.Inf(1),
		AllPoints:    "V1.all_points.dat",
		Bins:         "V1.bins.dat",
		Coefficients: [4]float64{31000, -0.3, 0.01, -0.002},
	}
	script := plot.Script()
	for _, want := range []string{
		"set term pdf\n",
		"set output \"V1.pdf\"\n",
		`set title "Lens \"Pro\" 12mm, 12.0 mm, f/2.8, ∞ m\nvignetting/V1.ORF" noenhanced`,
		`plot "V1.all_points.dat" with dots title "samples", "V1.bins.dat" with linespoints lw 4 title "average", `,
		"31000.000000 * (1 + (-0.300000) * x**2 + (0.010000) * x**4 + (-0.002000) * x**6) title \"fit\"\n",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
	plot.Distance = 2.5
	if !strings.Contains(plot.Script(), "f/2.8, 2.5 m") {
		t.Fatalf("expected finite distance in title:\n%s", plot.Script())
	}
}

func TestTCAPlotScript(t *testing.T) {
	script := gnuplot.TCAPlot{Output: "T1.pdf", Source: "T1.ORF", LensModel: "L", Focal: 25, Aperture: 8, BR: 0.0001, VR: 1.0003, BB: -0.0002, VB: 0.9995}.Script()
	want := "plot [0:1.8] 0.0001 * x**2 + 1.0003 title \"red\", -0.0002 * x**2 + 0.9995 title \"blue\"\n"
	if !strings.HasSuffix(script, want) {
		t.Fatalf("unexpected plot line:\n%s", script)
	}
}

func TestRenderWritesScriptAndRuns(t *testing.T) {
	dir := t.TempDir()
	stub := &stubExecutor{}
	client, err := gnuplot.New("gnuplot", gnuplot.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	script := filepath.Join(dir, "T1.gp")
	plot := gnuplot.TCAPlot{Output: filepath.Join(dir, "T1.pdf")}
	if err := client.Render(context.Background(), script, plot); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	data, err := os.ReadFile(script)
	if err != nil || string(data) != plot.Script() {
		t.Fatalf("script not written: %v", err)
	}
	if len(stub.args) != 1 || stub.args[0] != script {
		t.Fatalf("unexpected args %v", stub.args)
	}

	stub.err = errors.New("exit status 1")
	err = client.Render(context.Background(), script, plot)
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "undefined variable") {
		t.Fatalf("expected gnuplot stderr in error, got %v", err)
	}
}
