package lexical

import "errors"
import "math"
import "testing"

import "github.com/neurlang/seq2seq/batcher"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/learning"

func small(t *testing.T, smoothing float64) *Model {
	m, err := New(Config{Vocab: 5, Unit: 3, EOS: 0, LabelSmoothing: smoothing, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func arrays() batcher.Arrays {
	b := batcher.Batch{
		{Source: []int{3, 4}, Target: []int{3}},
		{Source: []int{4}, Target: []int{4, 4}},
	}
	return batcher.PadBatch(b, 0, 2)
}

func TestLogProbsNormalized(t *testing.T) {
	m := small(t, 0)
	lp, err := m.LogProbs([]int{3, 4}, []int{2})
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range lp {
		sum += math.Exp(x)
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("sum %v", sum)
	}
	if _, err := m.LogProbs([]int{9}, []int{2}); !errors.Is(err, ErrShape) {
		t.Fatalf("err %v", err)
	}
}

func TestForwardCounts(t *testing.T) {
	m := small(t, 0)
	m.Eval()
	_, st, err := m.Forward(arrays())
	if err != nil {
		t.Fatal(err)
	}
	// two target words plus EOS per row
	if st.NWords != 5 || st.NBatches != 1 {
		t.Fatalf("words %d batches %d", st.NWords, st.NBatches)
	}
	if st.Loss <= 0 {
		t.Fatalf("loss %v", st.Loss)
	}
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	for _, smoothing := range []float64{0, 0.1} {
		m := small(t, smoothing)
		m.Train()
		loss, _, err := m.Forward(arrays())
		if err != nil {
			t.Fatal(err)
		}
		if err := loss.Backward(); err != nil {
			t.Fatal(err)
		}
		const h = 1e-6
		for _, p := range m.Parameters() {
			for i := range p.Data {
				orig := p.Data[i]
				p.Data[i] = orig + h
				up, _, _ := m.Forward(arrays())
				p.Data[i] = orig - h
				down, _, _ := m.Forward(arrays())
				p.Data[i] = orig
				num := (up.Value() - down.Value()) / (2 * h)
				if math.Abs(num-p.Grad[i]) > 1e-5 {
					t.Fatalf("smoothing %v %s[%d]: analytic %v numeric %v", smoothing, p.Name, i, p.Grad[i], num)
				}
			}
		}
	}
}

func TestBackwardInEval(t *testing.T) {
	m := small(t, 0)
	m.Eval()
	loss, _, _ := m.Forward(arrays())
	if err := loss.Backward(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLearnsCopy(t *testing.T) {
	m, _ := New(Config{Vocab: 6, Unit: 8, EOS: 0, Seed: 2})
	corpus := datasets.Corpus{
		{Source: []int{3}, Target: []int{3}},
		{Source: []int{4}, Target: []int{4}},
		{Source: []int{5}, Target: []int{5}},
	}
	h := learning.Defaults(1, 1)
	h.Factor = 0.1
	opt := learning.NewAdam(h, m.Parameters())
	a := batcher.PadBatch(batcher.Batch(corpus), 0, 2)
	for i := 0; i < 500; i++ {
		m.Train()
		opt.ZeroGrad()
		loss, _, err := m.Forward(a)
		if err != nil {
			t.Fatal(err)
		}
		if err := loss.Backward(); err != nil {
			t.Fatal(err)
		}
		if err := opt.Step(); err != nil {
			t.Fatal(err)
		}
	}
	m.Eval()
	_, st, _ := m.Forward(a)
	if st.Accuracy() != 1 {
		t.Fatalf("accuracy %v", st.Accuracy())
	}
}

func TestMarshalRestores(t *testing.T) {
	m := small(t, 0)
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	other, _ := New(Config{Vocab: 5, Unit: 3, EOS: 0, Seed: 9})
	if err := other.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	a, _ := m.LogProbs([]int{3}, []int{2, 4})
	b, _ := other.LogProbs([]int{3}, []int{2, 4})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("log probs differ at %d: %v %v", i, a[i], b[i])
		}
	}
	wrong, _ := New(Config{Vocab: 4, Unit: 3, EOS: 0})
	if err := wrong.UnmarshalBinary(data); !errors.Is(err, ErrShape) {
		t.Fatalf("err %v", err)
	}
}

func TestUnmarshalIntoZero(t *testing.T) {
	m := small(t, 0)
	data, _ := m.MarshalBinary()
	var z Model
	if err := z.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if z.Vocab != 5 || z.Unit != 3 || len(z.Parameters()[0].Data) != 15 {
		t.Fatalf("shape %dx%d", z.Vocab, z.Unit)
	}
	if _, err := z.LogProbs([]int{3}, []int{2}); err != nil {
		t.Fatal(err)
	}
}
