package textutil_test

import (
	"testing"

	"lenscal/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Lens: 12/40  ": "Lens- 12-40",
		"what?\"<>|":      "what",
		"":                "",
	}
	for input, want := range cases {
		if got := textutil.SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLensFileStem(t *testing.T) {
	cases := map[string]string{
		"Olympus M.Zuiko Digital ED 12-40mm F2.8 Pro": "Olympus_M.Zuiko_Digital_ED_12-40mm_F2.8_Pro",
		"Zeiss Planar T* 50mm f/1.4":                  "Zeiss_Planar_T-_50mm_f-1.4",
		"Objectif Spécial  35mm":                      "Objectif_Special_35mm",
		"   ":                                         "lens",
	}
	for input, want := range cases {
		if got := textutil.LensFileStem(input); got != want {
			t.Fatalf("LensFileStem(%q) = %q, want %q", input, got, want)
		}
	}
}
