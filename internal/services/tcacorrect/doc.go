// Package tcacorrect runs hugin's tca_correct on PPM exports and parses the
// red/blue poly3 coefficients it reports.
package tcacorrect
