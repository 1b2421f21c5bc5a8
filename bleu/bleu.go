// Package bleu implements corpus level BLEU over token id sequences
package bleu

import "fmt"
import "math"
import "runtime"

import "gonum.org/v1/gonum/floats"

import "github.com/neurlang/seq2seq/parallel"

// MaxOrder is the largest n-gram order counted
const MaxOrder = 4

type ngram [MaxOrder]int

// Score is the corpus BLEU on a 0..100 scale together with its components
type Score struct {
	BLEU       float64
	Precisions [MaxOrder]float64 // modified n-gram precisions in percent
	BP         float64           // brevity penalty
	Ratio      float64           // hypothesis to reference length ratio
	HypLen     int
	RefLen     int
}

// String formats the score the way multi-bleu reports it
func (s Score) String() string {
	return fmt.Sprintf("BLEU = %.2f, %.1f/%.1f/%.1f/%.1f (BP=%.3f, ratio=%.3f, hyp_len=%d, ref_len=%d)",
		s.BLEU, s.Precisions[0], s.Precisions[1], s.Precisions[2], s.Precisions[3],
		s.BP, s.Ratio, s.HypLen, s.RefLen)
}

// sentence holds the clipped matches and totals of one hypothesis
type sentence struct {
	match, total [MaxOrder]int
	hyp, ref     int
}

func count(ids []int, n int) map[ngram]int {
	var m = make(map[ngram]int)
	for i := 0; i+n <= len(ids); i++ {
		var g ngram
		for j := range g {
			g[j] = -1
		}
		copy(g[:n], ids[i:i+n])
		m[g]++
	}
	return m
}

func stats(ref, hyp []int) (s sentence) {
	s.hyp, s.ref = len(hyp), len(ref)
	for n := 1; n <= MaxOrder; n++ {
		var refCounts = count(ref, n)
		for g, c := range count(hyp, n) {
			if r := refCounts[g]; r < c {
				s.match[n-1] += r
			} else {
				s.match[n-1] += c
			}
		}
		if len(hyp) >= n {
			s.total[n-1] = len(hyp) - n + 1
		}
	}
	return
}

// Evaluate computes corpus BLEU of hypotheses against references, pairing them by index.
// Extra entries on either side are ignored.
func Evaluate(references, hypotheses [][]int) Score {
	var n = len(references)
	if len(hypotheses) < n {
		n = len(hypotheses)
	}
	var sents = make([]sentence, n)
	parallel.ForEach(n, runtime.GOMAXPROCS(0), func(i int) {
		sents[i] = stats(references[i], hypotheses[i])
	})
	var corpus sentence
	for _, s := range sents {
		for k := 0; k < MaxOrder; k++ {
			corpus.match[k] += s.match[k]
			corpus.total[k] += s.total[k]
		}
		corpus.hyp += s.hyp
		corpus.ref += s.ref
	}
	return score(corpus)
}

func score(c sentence) (s Score) {
	s.HypLen, s.RefLen = c.hyp, c.ref
	if c.ref > 0 {
		s.Ratio = float64(c.hyp) / float64(c.ref)
	}
	var logs = make([]float64, MaxOrder)
	var zero bool
	for k := 0; k < MaxOrder; k++ {
		if c.total[k] == 0 || c.match[k] == 0 {
			zero = true
			continue
		}
		p := float64(c.match[k]) / float64(c.total[k])
		s.Precisions[k] = 100 * p
		logs[k] = math.Log(p)
	}
	switch {
	case c.hyp == 0:
		s.BP = 0
	case c.hyp > c.ref:
		s.BP = 1
	default:
		s.BP = math.Exp(1 - float64(c.ref)/float64(c.hyp))
	}
	if zero {
		return
	}
	s.BLEU = 100 * s.BP * math.Exp(floats.Sum(logs)/MaxOrder)
	return
}
