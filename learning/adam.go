package learning

import "math"

import "github.com/pkg/errors"

// ErrNonFinite is returned when a gradient holds NaN or Inf
var ErrNonFinite = errors.New("non finite gradient")

// Adam is the Adam optimizer driven by the warmup schedule of HyperParameters
type Adam struct {
	HyperParameters

	params []*Parameter
	m      [][]float64
	v      [][]float64
	step   int
	lr     float64
}

// NewAdam returns an optimizer over params
func NewAdam(h HyperParameters, params []*Parameter) *Adam {
	a := &Adam{HyperParameters: h, params: params}
	for _, p := range params {
		a.m = append(a.m, make([]float64, p.Len()))
		a.v = append(a.v, make([]float64, p.Len()))
	}
	return a
}

// ZeroGrad clears the gradients of all parameters
func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// Steps returns how many updates were applied
func (a *Adam) Steps() int {
	return a.step
}

// LR returns the learning rate of the last update
func (a *Adam) LR() float64 {
	return a.lr
}

// Step applies one update. A non finite gradient aborts the update and leaves every parameter untouched.
func (a *Adam) Step() error {
	for _, p := range a.params {
		for _, g := range p.Grad {
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return errors.Wrapf(ErrNonFinite, "parameter %s", p.Name)
			}
		}
	}
	a.step++
	a.lr = a.Rate(a.step)
	if a.l != nil && (a.step == 1 || a.step == a.WarmupSteps) {
		a.l.Printf("step %d lr %.6g", a.step, a.lr)
	}
	c1 := 1 - math.Pow(a.Beta1, float64(a.step))
	c2 := 1 - math.Pow(a.Beta2, float64(a.step))
	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			p.Data[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.Eps)
		}
	}
	return nil
}
