// Package lensfun renders lens profiles into the XML format read by the
// lensfun correction database and manages the generated files.
//
// Rendering rules:
//   - distortion uses ptlens when a, b and c are present, poly3 (k1) otherwise
//   - tca uses poly3; br and bb are written only for complex fits
//   - vignetting uses pa; an infinite distance is written as 1000, and a
//     focal/aperture pair measured only at infinity gets two entries
//     (10 and 1000) so lensfun can interpolate
//   - the type element is omitted for rectilinear ("normal") lenses
package lensfun
