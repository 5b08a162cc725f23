package lensfun

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"lenscal/internal/lens"
)

// DatabaseVersion is the lensfun XML schema version written to lensdatabase.
const DatabaseVersion = 2

// infiniteDistance and nearDistance are the metre values lensfun uses for
// vignetting measured at infinity.
const (
	infiniteDistance = 1000
	nearDistance     = 10
)

type database struct {
	XMLName xml.Name  `xml:"lensdatabase"`
	Version int       `xml:"version,attr"`
	Lenses  []lensXML `xml:"lens"`
}

type lensXML struct {
	Maker       string         `xml:"maker"`
	Model       string         `xml:"model"`
	Mount       string         `xml:"mount"`
	CropFactor  string         `xml:"cropfactor"`
	AspectRatio string         `xml:"aspect-ratio,omitempty"`
	Type        string         `xml:"type,omitempty"`
	Calibration calibrationXML `xml:"calibration"`
}

type calibrationXML struct {
	Distortion []distortionXML `xml:"distortion"`
	TCA        []tcaXML        `xml:"tca"`
	Vignetting []vignettingXML `xml:"vignetting"`
}

type distortionXML struct {
	Model string `xml:"model,attr"`
	Focal string `xml:"focal,attr"`
	K1    string `xml:"k1,attr,omitempty"`
	A     string `xml:"a,attr,omitempty"`
	B     string `xml:"b,attr,omitempty"`
	C     string `xml:"c,attr,omitempty"`
}

type tcaXML struct {
	Model string `xml:"model,attr"`
	Focal string `xml:"focal,attr"`
	BR    string `xml:"br,attr,omitempty"`
	VR    string `xml:"vr,attr"`
	BB    string `xml:"bb,attr,omitempty"`
	VB    string `xml:"vb,attr"`
}

type vignettingXML struct {
	Model    string `xml:"model,attr"`
	Focal    string `xml:"focal,attr"`
	Aperture string `xml:"aperture,attr"`
	Distance string `xml:"distance,attr"`
	K1       string `xml:"k1,attr"`
	K2       string `xml:"k2,attr"`
	K3       string `xml:"k3,attr"`
}

// Encode writes profiles as one lensdatabase document. Profiles are validated
// and their entries sorted before rendering.
func Encode(w io.Writer, profiles []lens.Profile) error {
	doc := database{Version: DatabaseVersion}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		p.Sort()
		doc.Lenses = append(doc.Lenses, renderLens(p))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode lensfun xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func renderLens(p lens.Profile) lensXML {
	out := lensXML{
		Maker:       p.Maker,
		Model:       p.Model,
		Mount:       p.Mount,
		CropFactor:  number(p.CropFactor),
		AspectRatio: p.AspectRatio,
	}
	if p.Type != "" && p.Type != "normal" {
		out.Type = p.Type
	}
	for _, d := range p.Distortion {
		entry := distortionXML{Model: d.Model(), Focal: number(d.Focal)}
		if entry.Model == "ptlens" {
			entry.A = coefficient(d.Coefficients[0])
			entry.B = coefficient(d.Coefficients[1])
			entry.C = coefficient(d.Coefficients[2])
		} else {
			entry.K1 = coefficient(d.Coefficients[0])
		}
		out.Calibration.Distortion = append(out.Calibration.Distortion, entry)
	}
	for _, t := range p.TCA {
		entry := tcaXML{Model: "poly3", Focal: number(t.Focal), VR: coefficient(t.VR), VB: coefficient(t.VB)}
		if t.Complex {
			entry.BR = coefficient(t.BR)
			entry.BB = coefficient(t.BB)
		}
		out.Calibration.TCA = append(out.Calibration.TCA, entry)
	}
	out.Calibration.Vignetting = renderVignetting(p.Vignetting)
	return out
}

// renderVignetting expects entries sorted by focal, aperture and distance.
func renderVignetting(entries []lens.VignettingEntry) []vignettingXML {
	var out []vignettingXML
	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && entries[end].Focal == entries[start].Focal && entries[end].Aperture == entries[start].Aperture {
			end++
		}
		group := entries[start:end]
		onlyInfinity := len(group) == 1 && math.IsInf(group[0].Distance, 1)
		for _, v := range group {
			distances := []string{distance(v.Distance)}
			if onlyInfinity {
				distances = []string{distance(nearDistance), distance(infiniteDistance)}
			}
			for _, d := range distances {
				out = append(out, vignettingXML{
					Model:    "pa",
					Focal:    number(v.Focal),
					Aperture: number(v.Aperture),
					Distance: d,
					K1:       coefficient(v.K1),
					K2:       coefficient(v.K2),
					K3:       coefficient(v.K3),
				})
			}
		}
		start = end
	}
	return out
}

func distance(d float64) string {
	if math.IsInf(d, 1) {
		d = infiniteDistance
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// number keeps one decimal for whole values ("12.0") and full precision otherwise.
func number(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func coefficient(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
