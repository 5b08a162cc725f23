package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"lenscal/internal/lens"
)

const (
	// DefaultMaxIterations bounds BFGS major iterations.
	DefaultMaxIterations = 200
	// DefaultGradientThreshold stops the optimizer once the gradient norm of
	// the residual sum of squares drops below it.
	DefaultGradientThreshold = 1e-10
)

// Options tunes the optimizer. Zero values select the defaults.
type Options struct {
	MaxIterations     int
	GradientThreshold float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.GradientThreshold <= 0 {
		o.GradientThreshold = DefaultGradientThreshold
	}
	return o
}

// Result holds fitted coefficients and residual metrics on the scale of the
// input samples.
type Result struct {
	Model        Model
	Coefficients []float64
	RMS          float64
	MaxAbs       float64
	Iterations   int
}

// Fit fits model to points by least squares. A linear solve seeds the
// parameters and BFGS refines them.
func Fit(model Model, points []lens.SamplePoint, opts Options) (Result, error) {
	if !model.valid() {
		return Result{}, diverged(model, "unknown model")
	}
	opts = opts.withDefaults()
	nParams := model.NumParams()
	if len(points) < nParams {
		return Result{}, diverged(model, "%d points for %d free parameters", len(points), nParams)
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return Result{}, diverged(model, "point %d is not finite", i)
		}
		xs[i], ys[i] = p.X, p.Y
	}

	// Intensities are fitted relative to their peak so the optimizer works on
	// values near one. The amplitude is scaled back afterwards.
	scale := 1.0
	if model == Vignetting {
		scale = floats.Norm(ys, math.Inf(1))
		if scale == 0 {
			return Result{}, diverged(model, "all intensities are zero")
		}
		floats.Scale(1/scale, ys)
	}

	seed, err := linearSeed(model, xs, ys)
	if err != nil {
		return Result{}, err
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			var sum float64
			for i, x := range xs {
				r := model.Eval(params, x) - ys[i]
				sum += r * r
			}
			return sum
		},
		Grad: func(grad, params []float64) {
			partial := make([]float64, nParams)
			for j := range grad {
				grad[j] = 0
			}
			for i, x := range xs {
				r := model.Eval(params, x) - ys[i]
				model.partials(params, x, partial)
				for j := range grad {
					grad[j] += 2 * r * partial[j]
				}
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: opts.GradientThreshold,
	}
	result, err := optimize.Minimize(problem, seed, settings, &optimize.BFGS{})
	if result != nil && result.Status == optimize.IterationLimit {
		return Result{}, diverged(model, "iteration budget of %d exhausted", opts.MaxIterations)
	}
	if err != nil {
		return Result{}, diverged(model, "optimizer: %v", err)
	}
	if !converged(result.Status) {
		return Result{}, diverged(model, "optimizer stopped with status %v", result.Status)
	}

	coeffs := append([]float64(nil), result.X...)
	for i, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Result{}, diverged(model, "coefficient %d is not finite", i)
		}
	}
	if model == Vignetting {
		coeffs[0] *= scale
		floats.Scale(scale, ys)
	}

	residuals := make([]float64, len(xs))
	for i, x := range xs {
		residuals[i] = model.Eval(coeffs, x) - ys[i]
	}
	return Result{
		Model:        model,
		Coefficients: coeffs,
		RMS:          floats.Norm(residuals, 2) / math.Sqrt(float64(len(residuals))),
		MaxAbs:       floats.Norm(residuals, math.Inf(1)),
		Iterations:   result.Stats.MajorIterations,
	}, nil
}

// linearSeed solves the linearised model with a QR factorization.
func linearSeed(model Model, xs, ys []float64) ([]float64, error) {
	n, p := len(xs), model.NumParams()
	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	row := make([]float64, p)
	for i, x := range xs {
		offset := model.linearize(x, row)
		a.SetRow(i, row)
		b.SetVec(i, ys[i]-offset)
	}

	var qr mat.QR
	qr.Factorize(a)
	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		return nil, diverged(model, "singular seed system: %v", err)
	}
	params, err := model.fromLinear(c.RawVector().Data)
	if err != nil {
		return nil, diverged(model, "%v", err)
	}
	return params, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.FunctionThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	default:
		return false
	}
}
