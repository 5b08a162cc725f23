package fit

import (
	"fmt"
	"math"
)

// Model names a lensfun correction model. The values match the model
// attribute written to lensfun XML.
type Model string

const (
	// Vignetting is the pa model: y = A(1 + k1 r^2 + k2 r^4 + k3 r^6).
	Vignetting Model = "pa"
	// PTLens is the panotools distortion model:
	// y = x(a x^3 + b x^2 + c x + 1 - a - b - c).
	PTLens Model = "ptlens"
	// Poly3 is the single-coefficient distortion model: y = x(1 - k1 + k1 x^2).
	Poly3 Model = "poly3"
)

// NumParams reports the number of free parameters of the model.
func (m Model) NumParams() int {
	switch m {
	case Vignetting:
		return 4
	case PTLens:
		return 3
	case Poly3:
		return 1
	default:
		return 0
	}
}

func (m Model) valid() bool {
	return m.NumParams() > 0
}

// Eval evaluates the model at x. params must hold NumParams values in the
// order documented on the model constant.
func (m Model) Eval(params []float64, x float64) float64 {
	switch m {
	case Vignetting:
		r2 := x * x
		return params[0] * (1 + params[1]*r2 + params[2]*r2*r2 + params[3]*r2*r2*r2)
	case PTLens:
		a, b, c := params[0], params[1], params[2]
		return x * (a*x*x*x + b*x*x + c*x + 1 - a - b - c)
	case Poly3:
		return x * (1 - params[0] + params[0]*x*x)
	default:
		return math.NaN()
	}
}

// partials writes the derivative of Eval with respect to each parameter.
func (m Model) partials(params []float64, x float64, out []float64) {
	switch m {
	case Vignetting:
		r2 := x * x
		r4 := r2 * r2
		r6 := r4 * r2
		out[0] = 1 + params[1]*r2 + params[2]*r4 + params[3]*r6
		out[1] = params[0] * r2
		out[2] = params[0] * r4
		out[3] = params[0] * r6
	case PTLens:
		out[0] = x*x*x*x - x
		out[1] = x*x*x - x
		out[2] = x*x - x
	case Poly3:
		out[0] = x*x*x - x
	}
}

// linearize fills row with the basis functions of the linear seed problem
// y - offset = row . c and returns the offset.
func (m Model) linearize(x float64, row []float64) float64 {
	switch m {
	case Vignetting:
		r2 := x * x
		row[0] = 1
		row[1] = r2
		row[2] = r2 * r2
		row[3] = r2 * r2 * r2
		return 0
	default:
		// The distortion models are already linear in their coefficients.
		m.partials(nil, x, row)
		return x
	}
}

// fromLinear maps the solution of the seed problem back to model parameters.
func (m Model) fromLinear(c []float64) ([]float64, error) {
	params := append([]float64(nil), c...)
	if m != Vignetting {
		return params, nil
	}
	if math.Abs(c[0]) < 1e-12 {
		return nil, fmt.Errorf("seed amplitude %g is degenerate", c[0])
	}
	for i := 1; i < len(params); i++ {
		params[i] = c[i] / c[0]
	}
	return params, nil
}
