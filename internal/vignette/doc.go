// Package vignette turns a flat-field export into the radial intensity
// profile the pa vignetting model is fitted to.
package vignette
