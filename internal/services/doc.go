// Package services defines shared utilities consumed by the calibration
// actions and the external tool clients beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, action names, and source images for
//     logging.
//   - Structured error markers plus the Wrap helper so failures keep their
//     class (extraction, parse, fit divergence, merge) across layers.
//   - The Executor abstraction that makes external tool invocations testable.
//
// The tool clients live in subpackages (exiftool, darktable, tcacorrect,
// gnuplot) and all run through an Executor.
package services
