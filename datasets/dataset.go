// Package datasets implements the parallel corpus and vocabulary types
package datasets

import "math/rand"

// Example is one parallel sentence pair of token ids
type Example struct {
	Source []int
	Target []int
}

// Corpus is an ordered collection of examples belonging to one split
type Corpus []Example

// Len returns the number of examples.
func (c Corpus) Len() int {
	return len(c)
}

// Swap swaps two examples.
func (c Corpus) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

// Shuffle shuffles the corpus in place using r
func (c Corpus) Shuffle(r *rand.Rand) {
	r.Shuffle(len(c), c.Swap)
}

// Split splits the corpus into the source side and the target side
func Split(c Corpus) (sources, targets [][]int) {
	sources = make([][]int, len(c))
	targets = make([][]int, len(c))
	for i, ex := range c {
		sources[i] = ex.Source
		targets[i] = ex.Target
	}
	return
}

// Words counts the source and target tokens of the corpus
func (c Corpus) Words() (src, tgt int) {
	for _, ex := range c {
		src += len(ex.Source)
		tgt += len(ex.Target)
	}
	return
}

// TargetIds reports every target token id that occurs in the corpus.
func (c Corpus) TargetIds() map[uint32]bool {
	var ids = make(map[uint32]bool)
	for _, ex := range c {
		for _, v := range ex.Target {
			ids[uint32(v)] = true
		}
	}
	return ids
}
