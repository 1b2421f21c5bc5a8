package batcher

import "github.com/neurlang/seq2seq/datasets"

// Shuffler shuffles n elements through swap. *rand.Rand implements it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// PoolFactor is how many batch budgets make up one sort pool
const PoolFactor = 100

// Sampler lazily yields the batches of one pass over a corpus
type Sampler struct {
	corpus   datasets.Corpus
	size     int
	key      KeyFunc
	cost     CostFunc
	shuffler Shuffler

	pos     int
	pending []Batch
}

// Pool returns the training sampler: the corpus is cut into pools of PoolFactor
// budgets, each pool is sorted by key and chunked into budget bounded batches,
// and the batches of a pool are shuffled before they are yielded.
func Pool(corpus datasets.Corpus, budget int, key KeyFunc, cost CostFunc, shuffler Shuffler) (*Sampler, error) {
	if budget <= 0 {
		return nil, ErrBudget
	}
	if cost == nil {
		cost = Tokens
	}
	return &Sampler{corpus: corpus, size: budget, key: key, cost: cost, shuffler: shuffler}, nil
}

// Fixed returns the evaluation sampler: batches of size examples, never shuffled.
// A non-nil key sorts each pool by it, a nil key keeps corpus order.
func Fixed(corpus datasets.Corpus, size int, key KeyFunc) (*Sampler, error) {
	if size <= 0 {
		return nil, ErrBudget
	}
	return &Sampler{corpus: corpus, size: size, key: key, cost: Count}, nil
}

// Next returns the next batch, or false once the pass is over
func (s *Sampler) Next() (Batch, bool) {
	for len(s.pending) == 0 {
		if s.pos >= len(s.corpus) {
			return nil, false
		}
		s.fill()
	}
	b := s.pending[0]
	s.pending = s.pending[1:]
	return b, true
}

// All drains the sampler
func (s *Sampler) All() (o []Batch) {
	for b, ok := s.Next(); ok; b, ok = s.Next() {
		o = append(o, b)
	}
	return
}

// fill carves the next pool out of the corpus
func (s *Sampler) fill() {
	var limit = s.size * PoolFactor
	var start, sofar = s.pos, 0
	for s.pos < len(s.corpus) {
		sofar = s.cost(s.corpus[s.pos], s.pos-start+1, sofar)
		s.pos++
		if sofar >= limit {
			break
		}
	}
	var pool = []datasets.Example(s.corpus[start:s.pos])
	if s.key != nil {
		pool = sortPool(pool, s.key)
	}
	s.pending = Chunk(pool, s.size, s.cost)
	if s.shuffler != nil {
		s.shuffler.Shuffle(len(s.pending), func(i, j int) {
			s.pending[i], s.pending[j] = s.pending[j], s.pending[i]
		})
	}
}
