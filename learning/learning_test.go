package learning

import "errors"
import "math"
import "testing"

func TestRatePeaksAtWarmup(t *testing.T) {
	h := Defaults(512, 4000)
	peak := h.Rate(4000)
	if h.Rate(100) >= peak || h.Rate(10000) >= peak {
		t.Fatalf("rate does not peak at warmup: %v %v %v", h.Rate(100), peak, h.Rate(10000))
	}
	want := math.Pow(512, -0.5) * math.Pow(4000, -0.5)
	if math.Abs(peak-want) > 1e-12 {
		t.Fatalf("peak %v want %v", peak, want)
	}
	if h.Rate(0) != h.Rate(1) {
		t.Fatalf("step 0 not clamped")
	}
}

func TestAdamMinimizes(t *testing.T) {
	h := Defaults(1, 1)
	h.Factor = 0.1
	p := NewParameter("x", 1)
	p.Data[0] = 3
	opt := NewAdam(h, []*Parameter{p})
	for i := 0; i < 2000; i++ {
		opt.ZeroGrad()
		p.Grad[0] = 2 * (p.Data[0] - 1)
		if err := opt.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(p.Data[0]-1) > 0.05 {
		t.Fatalf("x = %v", p.Data[0])
	}
	if opt.Steps() != 2000 {
		t.Fatalf("steps %d", opt.Steps())
	}
}

func TestAdamRejectsNaN(t *testing.T) {
	p := NewParameter("w", 2)
	p.Data[0] = 1
	opt := NewAdam(Defaults(1, 1), []*Parameter{p})
	p.Grad[1] = math.NaN()
	if err := opt.Step(); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("err %v", err)
	}
	if p.Data[0] != 1 || opt.Steps() != 0 {
		t.Fatalf("update applied")
	}
}

func TestZeroGrad(t *testing.T) {
	p := NewParameter("w", 3)
	p.Grad[0], p.Grad[2] = 1, -1
	NewAdam(Defaults(1, 1), []*Parameter{p}).ZeroGrad()
	for _, g := range p.Grad {
		if g != 0 {
			t.Fatalf("grad %v", p.Grad)
		}
	}
}
