// Package preflight provides readiness checks for the external tools and
// filesystem paths a calibration action depends on.
//
// These checks run in two contexts:
//   - Each mutating action calls RunAll before touching the workspace so a
//     missing darktable-cli fails fast instead of halfway through a batch.
//   - The CLI "lenscal deps" command lists every tool with its status.
package preflight
