// Package calibrate runs the lens calibration actions against a workspace.
//
// Each action is a strictly sequential pass over the images of one
// calibration directory:
//
//	distortion    export TIFFs for hugin, fit optional point files, write lenses.toml
//	tca           export PPMs, measure with tca_correct, store, plot and merge (complex)
//	vignetting    export TIFF and JPEG, sample radial intensity, fit pa, store, plot, merge
//	generate-xml  combine lenses.toml with stored results into a lensfun XML file
//	ship          pack the XML, reports and previews into a tar.xz
//
// Mutating actions hold the workspace lock and are recorded as runs in the
// results store. Work already done (exports on disk, results in the store) is
// skipped, so re-running an action after a failure resumes where it stopped.
// Failures are not retried; the first error ends the action.
package calibrate
