package gnuplot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VignettingPlot shows the sampled pixels, bin medians and fitted pa curve
// for one flat-field image.
type VignettingPlot struct {
	Output    string
	Source    string
	LensModel string
	Focal     float64
	Aperture  float64
	Distance  float64
	AllPoints string
	Bins      string
	// Coefficients holds A, k1, k2 and k3.
	Coefficients [4]float64
}

func (p VignettingPlot) OutputPath() string { return p.Output }

func (p VignettingPlot) Script() string {
	var b strings.Builder
	writeHeader(&b, p.Source, p.Output)
	title := fmt.Sprintf("%s, %0.1f mm, f/%0.1f, %s m\\n%s", p.LensModel, p.Focal, p.Aperture, distanceLabel(p.Distance), p.Source)
	fmt.Fprintf(&b, "set title %s noenhanced\n", quote(title))
	fmt.Fprintf(&b, "plot %s with dots title \"samples\", ", quote(p.AllPoints))
	fmt.Fprintf(&b, "%s with linespoints lw 4 title \"average\", ", quote(p.Bins))
	c := p.Coefficients
	fmt.Fprintf(&b, "%f * (1 + (%f) * x**2 + (%f) * x**4 + (%f) * x**6) title \"fit\"\n", c[0], c[1], c[2], c[3])
	return b.String()
}

// TCAPlot shows the red and blue channel scaling against radius.
type TCAPlot struct {
	Output         string
	Source         string
	LensModel      string
	Focal          float64
	Aperture       float64
	BR, VR, BB, VB float64
}

func (p TCAPlot) OutputPath() string { return p.Output }

func (p TCAPlot) Script() string {
	var b strings.Builder
	writeHeader(&b, p.Source, p.Output)
	title := fmt.Sprintf("%s, %0.1f mm, f/%0.1f\\n%s", p.LensModel, p.Focal, p.Aperture, p.Source)
	fmt.Fprintf(&b, "set title %s noenhanced\n", quote(title))
	fmt.Fprintf(&b, "plot [0:1.8] %s * x**2 + %s title \"red\", %s * x**2 + %s title \"blue\"\n",
		num(p.BR), num(p.VR), num(p.BB), num(p.VB))
	return b.String()
}

func writeHeader(b *strings.Builder, source, output string) {
	b.WriteString("set term pdf\n")
	fmt.Fprintf(b, "set print %s\n", quote(source))
	fmt.Fprintf(b, "set output %s\n", quote(output))
	b.WriteString("set fit logfile \"/dev/null\"\n")
	b.WriteString("set grid\n")
}

// quote renders s as a double-quoted gnuplot string. Backslash escapes
// already present (the \n line break in titles) are kept.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func distanceLabel(d float64) string {
	if math.IsInf(d, 1) {
		return "∞"
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}
