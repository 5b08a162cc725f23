package lens

import (
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]struct{}{}

func init() {
	for _, ext := range []string{
		".3FR", ".ARI", ".ARW", ".BAY", ".CRW", ".CR2", ".CR3", ".CAP", ".DCS",
		".DCR", ".DNG", ".DRF", ".EIP", ".ERF", ".FFF", ".IIQ", ".K25",
		".KDC", ".MEF", ".MOS", ".MRW", ".NEF", ".NRW", ".OBM", ".ORF",
		".PEF", ".PTX", ".PXN", ".R3D", ".RAF", ".RAW", ".RWL", ".RW2",
		".RWZ", ".SR2", ".SRF", ".SRW", ".X3F", ".JPG", ".JPEG", ".TIF",
		".TIFF",
	} {
		imageExtensions[ext] = struct{}{}
	}
}

// Sidecars and helper files that live next to calibration photos.
var ignoredExtensions = map[string]struct{}{
	".xmp": {}, ".pp3": {}, ".dop": {}, ".gp": {}, ".dat": {}, ".csv": {},
}

// IsImageFile reports whether name has a raw or image extension lenscal can calibrate from.
func IsImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToUpper(filepath.Ext(name))]
	return ok
}

// IsIgnored reports whether name is a hidden file or a known sidecar that
// should be skipped silently when scanning a calibration directory.
func IsIgnored(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	_, ok := ignoredExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// PointsFile returns the distortion point sidecar path for an image.
func PointsFile(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".points.csv"
}
