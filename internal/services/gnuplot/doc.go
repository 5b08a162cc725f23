// Package gnuplot writes calibration plot scripts and renders them to
// single-page PDFs with the gnuplot binary.
package gnuplot
