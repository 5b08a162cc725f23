// Package lensconf reads and writes lenses.toml, the hand-edited file that
// carries the lens descriptions lensfun needs but photo metadata cannot
// supply reliably: maker, mount, crop factor, aspect ratio, projection type
// and the per-focal-length distortion coefficients measured in hugin.
//
// The distortion action writes a template with one [[lens]] table per lens
// model found in distortion/ and zero coefficients (or fitted ones when point
// files exist). generate-xml loads it back into lens.Profile values.
package lensconf
