// Package textutil provides filename helpers shared by the lensfun writer and
// the export paths.
//
// Lens models come straight from photo metadata and may contain slashes,
// colons or accented characters; LensFileStem folds them into a stem that is
// safe on every filesystem lenscal writes to.
package textutil
