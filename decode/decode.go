// Package decode implements greedy and beam search generation over a next token scorer
package decode

import "math"
import "sort"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"

import "github.com/neurlang/seq2seq/parallel"

// Scorer is a model in inference mode
type Scorer interface {
	// LogProbs returns the log probability of every vocabulary id following prefix.
	// The prefix starts with the BOS id.
	LogProbs(source, prefix []int) ([]float64, error)
}

// Generator generates translations. Beam widths of 1 or less decode greedily.
type Generator struct {
	Beam      int
	MaxLength int
	EOS, BOS  int
	Threads   int // sources decoded concurrently by GenerateAll
}

// Generate translates one source. The result never contains BOS or EOS.
// When no hypothesis ends within MaxLength the best partial one is returned.
func (g Generator) Generate(s Scorer, source []int) ([]int, error) {
	if g.Beam <= 1 {
		return g.greedy(s, source)
	}
	return g.beam(s, source)
}

// GenerateAll translates every source, keeping their order
func (g Generator) GenerateAll(s Scorer, sources [][]int) ([][]int, error) {
	var out = make([][]int, len(sources))
	err := parallel.ForEachErr(len(sources), g.Threads, func(i int) (err error) {
		out[i], err = g.Generate(s, sources[i])
		return errors.Wrapf(err, "generate sentence %d", i)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g Generator) greedy(s Scorer, source []int) ([]int, error) {
	var prefix = []int{g.BOS}
	for len(prefix) <= g.MaxLength {
		lp, err := s.LogProbs(source, prefix)
		if err != nil {
			return nil, err
		}
		if len(lp) == 0 {
			break
		}
		next := floats.MaxIdx(lp)
		if next == g.EOS {
			break
		}
		prefix = append(prefix, next)
	}
	return prefix[1:], nil
}

type hypothesis struct {
	ids   []int // BOS first
	score float64
}

type candidate struct {
	parent int
	token  int
	score  float64
}

// less orders candidates by score, then parent, then token, so ties are deterministic
func less(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.parent != b.parent {
		return a.parent < b.parent
	}
	return a.token < b.token
}

// top returns the ids of the k best log probabilities, lowest id first among equals
func top(lp []float64, k int) []int {
	var idx = make([]int, len(lp))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return lp[idx[i]] > lp[idx[j]]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

// beam keeps the Beam best unfinished hypotheses per step. Scores never grow with
// length, so the search ends once no unfinished hypothesis can beat the best finished one.
func (g Generator) beam(s Scorer, source []int) ([]int, error) {
	var alive = []hypothesis{{ids: []int{g.BOS}}}
	var best *hypothesis
	for step := 0; step < g.MaxLength && len(alive) > 0; step++ {
		if best != nil && alive[0].score <= best.score {
			break
		}
		var cands []candidate
		for p, h := range alive {
			lp, err := s.LogProbs(source, h.ids)
			if err != nil {
				return nil, err
			}
			for _, tok := range top(lp, g.Beam+1) {
				if math.IsInf(lp[tok], -1) || math.IsNaN(lp[tok]) {
					continue
				}
				cands = append(cands, candidate{parent: p, token: tok, score: h.score + lp[tok]})
			}
		}
		sort.Slice(cands, func(i, j int) bool {
			return less(cands[i], cands[j])
		})
		var next []hypothesis
		for _, c := range cands {
			if len(next) >= g.Beam {
				break
			}
			parent := alive[c.parent]
			if c.token == g.EOS {
				if best == nil || c.score > best.score {
					best = &hypothesis{ids: parent.ids, score: c.score}
				}
				continue
			}
			ids := make([]int, len(parent.ids)+1)
			copy(ids, parent.ids)
			ids[len(parent.ids)] = c.token
			next = append(next, hypothesis{ids: ids, score: c.score})
		}
		alive = next
	}
	if best == nil {
		if len(alive) == 0 {
			return []int{}, nil
		}
		best = &alive[0]
	}
	return best.ids[1:], nil
}
