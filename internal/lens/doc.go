// Package lens holds the calibration data model: image samples read from
// photo metadata, the buckets fitted coefficients belong to, and the lens
// profiles written to the lensfun database.
package lens
