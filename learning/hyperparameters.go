package learning

import "io"
import "log"
import "math"

// HyperParameters configure the Adam optimizer and its warmup schedule
type HyperParameters struct {
	Unit        int // model width, scales the learning rate by Unit^-0.5
	WarmupSteps int // steps of linear warmup before the inverse square root decay
	Factor      float64

	Beta1 float64
	Beta2 float64
	Eps   float64

	l *log.Logger
}

// Defaults returns the transformer hyperparameters for the given width and warmup
func Defaults(unit, warmup int) HyperParameters {
	return HyperParameters{
		Unit:        unit,
		WarmupSteps: warmup,
		Factor:      1,
		Beta1:       0.9,
		Beta2:       0.98,
		Eps:         1e-9,
	}
}

// SetLogger sets where learning rate changes are printed
func (h *HyperParameters) SetLogger(w io.Writer) {
	h.l = log.New(w, "", 0)
}

// Rate returns the learning rate at the 1-based step:
// Factor * Unit^-0.5 * min(step^-0.5, step * WarmupSteps^-1.5)
func (h *HyperParameters) Rate(step int) float64 {
	if step < 1 {
		step = 1
	}
	unit := h.Unit
	if unit < 1 {
		unit = 1
	}
	warmup := h.WarmupSteps
	if warmup < 1 {
		warmup = 1
	}
	s := float64(step)
	return h.Factor * math.Pow(float64(unit), -0.5) *
		math.Min(math.Pow(s, -0.5), s*math.Pow(float64(warmup), -1.5))
}
