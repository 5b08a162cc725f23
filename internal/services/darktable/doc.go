// Package darktable drives darktable-cli to develop raw calibration shots.
//
// Each Purpose pairs an embedded XMP sidecar with export settings. Exports
// run with a throwaway --configdir so the user's darktable library is never
// touched, and outputs that already exist are left alone.
package darktable
