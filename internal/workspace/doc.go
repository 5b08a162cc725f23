// Package workspace owns the calibration directory layout:
//
//	distortion/            raw files for hugin distortion measurements
//	distortion/exported/   16-bit TIFFs for hugin
//	tca/                   raw files for tca_correct
//	tca/exported/          PPM exports, plot scripts and pages
//	vignetting/            raw files shot at infinity
//	vignetting/<metres>/   raw files shot at a finite distance
//	vignetting/exported/   TIFF and JPEG exports, plot scripts and pages
//	.lenscal/              results database and lock file
//
// It also provides the advisory lock that keeps two lenscal processes from
// mutating one workspace concurrently.
package workspace
