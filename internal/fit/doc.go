// Package fit fits lensfun correction models to sample points.
//
// Every fit is seeded from a linear least-squares solve and refined with
// gonum's BFGS minimizer. Fits that cannot be trusted return a
// *DivergenceError instead of coefficients; callers never retry them.
package fit
