// Package main hosts the lenscal CLI entrypoint and command graph.
//
// Each calibration action (init, distortion, tca, vignetting, generate-xml,
// ship) maps onto one calibrate.Runner method. The command context resolves
// configuration, applies the global --dir and logging flags and opens the
// results store so subcommands only translate flags and print summaries.
package main
