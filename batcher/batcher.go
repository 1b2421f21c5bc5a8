// Package batcher implements token-budgeted bucketed batching over a parallel corpus
package batcher

import "sort"

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/datasets"

// ErrBudget is returned for a non-positive batch size or token budget
var ErrBudget = errors.New("batch budget must be positive")

// Batch is a group of examples processed in one step
type Batch []datasets.Example

// CostFunc returns the running size of a batch after appending ex as its count-th element
type CostFunc func(ex datasets.Example, count, sofar int) int

// Tokens is the token budget cost: source plus target length
func Tokens(ex datasets.Example, count, sofar int) int {
	return sofar + len(ex.Source) + len(ex.Target)
}

// Count is the example count cost
func Count(ex datasets.Example, count, sofar int) int {
	return count
}

// KeyFunc orders examples inside a pool
type KeyFunc func(ex datasets.Example) uint32

// InterleaveKeys interleaves the bits of two 16 bit lengths, the bit of a first.
// Sorting by it clusters pairs that are similar on both sides.
// Lengths are clamped to [0, 0xffff].
func InterleaveKeys(a, b int) uint32 {
	a, b = clamp16(a), clamp16(b)
	var o uint32
	for i := 15; i >= 0; i-- {
		o = o<<1 | uint32(a>>i)&1
		o = o<<1 | uint32(b>>i)&1
	}
	return o
}

func clamp16(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 0xffff:
		return 0xffff
	}
	return n
}

// LengthKey sorts examples by interleaved source and target lengths
func LengthKey(ex datasets.Example) uint32 {
	return InterleaveKeys(len(ex.Source), len(ex.Target))
}

// Chunk splits examples into consecutive batches. The example is appended first
// and the bound checked after, so a batch may exceed size by its last example only.
func Chunk(examples []datasets.Example, size int, cost CostFunc) []Batch {
	var out []Batch
	var cur Batch
	var sofar int
	for _, ex := range examples {
		cur = append(cur, ex)
		sofar = cost(ex, len(cur), sofar)
		if sofar >= size {
			out = append(out, cur)
			cur, sofar = nil, 0
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// Cost evaluates the cost function over a whole batch
func Cost(b Batch, cost CostFunc) (sofar int) {
	for i, ex := range b {
		sofar = cost(ex, i+1, sofar)
	}
	return
}

func sortPool(p []datasets.Example, key KeyFunc) []datasets.Example {
	var sorted = append([]datasets.Example(nil), p...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) < key(sorted[j])
	})
	return sorted
}
