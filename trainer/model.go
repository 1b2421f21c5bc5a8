package trainer

import "fmt"
import "io"
import "strings"

import "gonum.org/v1/gonum/floats"

import "github.com/neurlang/seq2seq/batcher"
import "github.com/neurlang/seq2seq/checkpoint"
import "github.com/neurlang/seq2seq/decode"
import "github.com/neurlang/seq2seq/learning"
import "github.com/neurlang/seq2seq/stats"

// Model is a trainable translation model
type Model interface {
	Train()
	Eval()
	Forward(a batcher.Arrays) (learning.Loss, stats.Statistics, error)
	Parameters() []*learning.Parameter

	decode.Scorer
	checkpoint.Model
}

// Optimizer updates the parameters of a model from their gradients
type Optimizer interface {
	ZeroGrad()
	Step() error
}

// GradNorm returns the L2 norm over all gradient buffers
func GradNorm(params []*learning.Parameter) float64 {
	var norms = make([]float64, 0, len(params))
	for _, p := range params {
		if len(p.Grad) == 0 {
			continue
		}
		norms = append(norms, floats.Norm(p.Grad, 2))
	}
	if len(norms) == 0 {
		return 0
	}
	return floats.Norm(norms, 2)
}

// Tally is the parameter count of a model by part
type Tally struct {
	Total, Encoder, Decoder, Other int
}

// TallyParameters counts parameters. Names containing "encoder" count as encoder,
// names containing "decoder" or "generator" as decoder.
func TallyParameters(params []*learning.Parameter) (t Tally) {
	for _, p := range params {
		n := p.Len()
		t.Total += n
		switch {
		case strings.Contains(p.Name, "encoder"):
			t.Encoder += n
		case strings.Contains(p.Name, "decoder"), strings.Contains(p.Name, "generator"):
			t.Decoder += n
		default:
			t.Other += n
		}
	}
	return
}

// Print writes the tally the way it is shown at startup
func (t Tally) Print(w io.Writer) {
	fmt.Fprintf(w, "* number of parameters: %d\n", t.Total)
	fmt.Fprintln(w, "encoder: ", t.Encoder)
	fmt.Fprintln(w, "decoder: ", t.Decoder)
	if t.Other > 0 {
		fmt.Fprintln(w, "other: ", t.Other)
	}
}
