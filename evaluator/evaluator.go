// Package evaluator scores a model on a corpus by generating translations and computing corpus BLEU
package evaluator

import "io"
import "log"

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/bleu"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/decode"
import "github.com/neurlang/seq2seq/parallel"

// Model is a translation model that can be switched to inference mode
type Model interface {
	decode.Scorer
	Eval()
}

// Evaluator runs CalculateQuality passes
type Evaluator struct {
	Batch     int // sentences per generation batch
	MaxLength int // longest generated hypothesis
	Beam      int // beam width, 1 or less is greedy
	EOS, BOS  int
	Threads   int // sentences of one batch decoded concurrently

	l *log.Logger
}

// SetLogger sets where the BLEU lines are printed
func (e *Evaluator) SetLogger(w io.Writer) {
	e.l = log.New(w, "", 0)
}

// Result is the outcome of one CalculateQuality pass
type Result struct {
	Score       bleu.Score
	Hypotheses  [][]int // one per example, corpus order
	Fingerprint [32]byte
}

// CalculateQuality translates the corpus batch by batch in corpus order and scores it.
// The model is left in inference mode.
func (e *Evaluator) CalculateQuality(m Model, corpus datasets.Corpus, key string) (r Result, err error) {
	if e.Batch <= 0 {
		return r, errors.Errorf("evaluator batch size %d", e.Batch)
	}
	m.Eval()
	var gen = decode.Generator{Beam: e.Beam, MaxLength: e.MaxLength, EOS: e.EOS, BOS: e.BOS, Threads: e.Threads}
	var references = make([][]int, 0, len(corpus))
	r.Hypotheses = make([][]int, 0, len(corpus))
	for i := 0; i < len(corpus); i += e.Batch {
		j := i + e.Batch
		if j > len(corpus) {
			j = len(corpus)
		}
		sources, targets := datasets.Split(corpus[i:j])
		references = append(references, targets...)
		ys, err := gen.GenerateAll(m, sources)
		if err != nil {
			return r, errors.Wrapf(err, "%s batch at %d", key, i)
		}
		r.Hypotheses = append(r.Hypotheses, ys...)
	}
	r.Score = bleu.Evaluate(references, r.Hypotheses)
	r.Fingerprint = parallel.Fingerprint(r.Hypotheses)
	if e.l != nil {
		e.l.Printf("%s: %s", key, r.Score)
	}
	return r, nil
}
