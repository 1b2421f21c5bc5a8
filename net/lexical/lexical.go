// Package lexical implements a small conditional lexical translation model.
//
// The next token distribution is softmax(W h + b) where h is the target embedding
// of the previous token plus the mean source embedding of the sentence.
package lexical

import "encoding/json"
import "math"
import "math/rand"
import "sync"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"

import "github.com/neurlang/seq2seq/batcher"
import "github.com/neurlang/seq2seq/learning"
import "github.com/neurlang/seq2seq/stats"

// ErrShape is returned for ids outside the vocabulary or mismatched weights
var ErrShape = errors.New("shape mismatch")

// Config describes the model size and regularization
type Config struct {
	Vocab          int
	Unit           int
	EOS            int
	Dropout        float64
	LabelSmoothing float64
	Seed           int64
}

// Model is the lexical translation model
type Model struct {
	Config

	srcEmbed *learning.Parameter
	tgtEmbed *learning.Parameter
	weight   *learning.Parameter
	bias     *learning.Parameter

	training bool
	mut      sync.Mutex
	rng      *rand.Rand
}

// New returns a model with small random weights
func New(c Config) (*Model, error) {
	if c.Vocab <= 0 || c.Unit <= 0 {
		return nil, errors.Wrapf(ErrShape, "vocab %d unit %d", c.Vocab, c.Unit)
	}
	if c.EOS < 0 || c.EOS >= c.Vocab {
		return nil, errors.Wrapf(ErrShape, "eos %d outside vocabulary of %d", c.EOS, c.Vocab)
	}
	m := &Model{
		Config:   c,
		srcEmbed: learning.NewParameter("encoder.embed", c.Vocab*c.Unit),
		tgtEmbed: learning.NewParameter("decoder.embed", c.Vocab*c.Unit),
		weight:   learning.NewParameter("generator.weight", c.Vocab*c.Unit),
		bias:     learning.NewParameter("generator.bias", c.Vocab),
		rng:      rand.New(rand.NewSource(c.Seed)),
	}
	scale := 1 / math.Sqrt(float64(c.Unit))
	for _, p := range []*learning.Parameter{m.srcEmbed, m.tgtEmbed, m.weight} {
		for i := range p.Data {
			p.Data[i] = (m.rng.Float64()*2 - 1) * scale
		}
	}
	return m, nil
}

// Parameters returns the trainable buffers
func (m *Model) Parameters() []*learning.Parameter {
	return []*learning.Parameter{m.srcEmbed, m.tgtEmbed, m.weight, m.bias}
}

// Train enables dropout and gradient bookkeeping
func (m *Model) Train() {
	m.training = true
}

// Eval switches to inference mode
func (m *Model) Eval() {
	m.training = false
}

func (m *Model) row(p *learning.Parameter, id int) []float64 {
	return p.Data[id*m.Unit : (id+1)*m.Unit]
}

func (m *Model) check(ids []int) error {
	for _, id := range ids {
		if id >= m.Vocab || id < batcher.Pad {
			return errors.Wrapf(ErrShape, "id %d outside vocabulary of %d", id, m.Vocab)
		}
	}
	return nil
}

// context returns the mean source embedding of the non padding ids
func (m *Model) context(source []int) (ctx []float64, ids []int) {
	ctx = make([]float64, m.Unit)
	for _, id := range source {
		if id == batcher.Pad {
			continue
		}
		ids = append(ids, id)
		floats.Add(ctx, m.row(m.srcEmbed, id))
	}
	if len(ids) > 0 {
		floats.Scale(1/float64(len(ids)), ctx)
	}
	return
}

// logits computes W h + b
func (m *Model) logits(h []float64) []float64 {
	out := make([]float64, m.Vocab)
	for v := range out {
		out[v] = floats.Dot(m.row(m.weight, v), h) + m.bias.Data[v]
	}
	return out
}

// logSoftmax turns logits into log probabilities in place
func logSoftmax(x []float64) []float64 {
	floats.AddConst(-floats.LogSumExp(x), x)
	return x
}

// LogProbs implements the decoding scorer. It is safe for concurrent use in inference mode.
func (m *Model) LogProbs(source, prefix []int) ([]float64, error) {
	if len(prefix) == 0 {
		return nil, errors.New("empty prefix")
	}
	if err := m.check(source); err != nil {
		return nil, err
	}
	if err := m.check(prefix); err != nil {
		return nil, err
	}
	if prefix[len(prefix)-1] < 0 {
		return nil, errors.Wrap(ErrShape, "padding in prefix")
	}
	src := append(append([]int(nil), source...), m.EOS)
	h, _ := m.context(src)
	floats.Add(h, m.row(m.tgtEmbed, prefix[len(prefix)-1]))
	return logSoftmax(m.logits(h)), nil
}

type position struct {
	src   []int
	prev  int
	gold  int
	h     []float64
	mask  []float64
	probs []float64
}

// Loss is the summed label smoothed cross entropy of a batch
type Loss struct {
	m        *Model
	value    float64
	pos      []position
	training bool
	done     bool
}

// Value returns the summed loss
func (l *Loss) Value() float64 {
	return l.value
}

// Backward accumulates the gradients of the batch loss into the parameters
func (l *Loss) Backward() error {
	if l.done {
		return errors.New("backward called twice")
	}
	if !l.training {
		return errors.New("backward on a loss computed in inference mode")
	}
	l.done = true
	m := l.m
	eps := m.LabelSmoothing
	uniform := eps / float64(m.Vocab)
	dh := make([]float64, m.Unit)
	for _, p := range l.pos {
		for i := range dh {
			dh[i] = 0
		}
		for v, pr := range p.probs {
			d := pr - uniform
			if v == p.gold {
				d -= 1 - eps
			}
			if d == 0 {
				continue
			}
			m.bias.Grad[v] += d
			floats.AddScaled(m.weight.Grad[v*m.Unit:(v+1)*m.Unit], d, p.h)
			floats.AddScaled(dh, d, m.row(m.weight, v))
		}
		if p.mask != nil {
			floats.Mul(dh, p.mask)
		}
		floats.Add(m.tgtEmbed.Grad[p.prev*m.Unit:(p.prev+1)*m.Unit], dh)
		share := 1 / float64(len(p.src))
		for _, id := range p.src {
			floats.AddScaled(m.srcEmbed.Grad[id*m.Unit:(id+1)*m.Unit], share, dh)
		}
	}
	return nil
}

// Forward computes the loss and statistics of a padded batch
func (m *Model) Forward(a batcher.Arrays) (learning.Loss, stats.Statistics, error) {
	var st = stats.New()
	var loss = &Loss{m: m, training: m.training}
	if len(a.Source) != len(a.TargetIn) || len(a.TargetIn) != len(a.TargetOut) {
		return nil, st, errors.Wrapf(ErrShape, "rows %d/%d/%d", len(a.Source), len(a.TargetIn), len(a.TargetOut))
	}
	eps := m.LabelSmoothing
	for i := range a.Source {
		if err := m.check(a.Source[i]); err != nil {
			return nil, st, err
		}
		if err := m.check(a.TargetIn[i]); err != nil {
			return nil, st, err
		}
		if err := m.check(a.TargetOut[i]); err != nil {
			return nil, st, err
		}
		ctx, src := m.context(a.Source[i])
		for t, gold := range a.TargetOut[i] {
			if gold == batcher.Pad {
				continue
			}
			prev := a.TargetIn[i][t]
			h := make([]float64, m.Unit)
			floats.Add(h, ctx)
			floats.Add(h, m.row(m.tgtEmbed, prev))
			var mask []float64
			if m.training && m.Dropout > 0 {
				mask = m.dropout()
				floats.Mul(h, mask)
			}
			lp := logSoftmax(m.logits(h))
			nll := -lp[gold]
			if eps > 0 {
				nll = (1-eps)*nll - eps*floats.Sum(lp)/float64(m.Vocab)
			}
			loss.value += nll
			if floats.MaxIdx(lp) == gold {
				st.NCorrect++
			}
			st.NWords++
			if m.training {
				probs := make([]float64, len(lp))
				for v, x := range lp {
					probs[v] = math.Exp(x)
				}
				loss.pos = append(loss.pos, position{src: src, prev: prev, gold: gold, h: h, mask: mask, probs: probs})
			}
		}
	}
	st.Loss = loss.value
	st.NBatches = 1
	return loss, st, nil
}

func (m *Model) dropout() []float64 {
	m.mut.Lock()
	defer m.mut.Unlock()
	mask := make([]float64, m.Unit)
	keep := 1 - m.Dropout
	for i := range mask {
		if m.rng.Float64() < keep {
			mask[i] = 1 / keep
		}
	}
	return mask
}

type weights struct {
	Vocab  int                  `json:"vocab"`
	Unit   int                  `json:"unit"`
	EOS    int                  `json:"eos"`
	Params map[string][]float64 `json:"params"`
}

// MarshalBinary encodes the weights as JSON
func (m *Model) MarshalBinary() ([]byte, error) {
	var w = weights{Vocab: m.Vocab, Unit: m.Unit, EOS: m.EOS, Params: make(map[string][]float64)}
	for _, p := range m.Parameters() {
		w.Params[p.Name] = p.Data
	}
	return json.Marshal(w)
}

// UnmarshalBinary restores weights written by MarshalBinary into a model of the same shape.
// A zero Model takes the shape of the weights.
func (m *Model) UnmarshalBinary(data []byte) error {
	var w weights
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "lexical weights")
	}
	if m.srcEmbed == nil {
		fresh, err := New(Config{Vocab: w.Vocab, Unit: w.Unit, EOS: w.EOS, Seed: m.Seed})
		if err != nil {
			return err
		}
		m.Vocab, m.Unit = w.Vocab, w.Unit
		m.srcEmbed, m.tgtEmbed, m.weight, m.bias = fresh.srcEmbed, fresh.tgtEmbed, fresh.weight, fresh.bias
		m.rng = fresh.rng
	}
	if w.Vocab != m.Vocab || w.Unit != m.Unit {
		return errors.Wrapf(ErrShape, "weights %dx%d, model %dx%d", w.Vocab, w.Unit, m.Vocab, m.Unit)
	}
	for _, p := range m.Parameters() {
		data, ok := w.Params[p.Name]
		if !ok || len(data) != len(p.Data) {
			return errors.Wrapf(ErrShape, "parameter %s", p.Name)
		}
		copy(p.Data, data)
	}
	m.EOS = w.EOS
	return nil
}
