// Package report assembles single-page plot PDFs into the calibration
// reports shipped with a profile.
//
// Merge is all or nothing: a corrupt input aborts the merge before anything
// is written.
package report
