// Package stats implements the running loss and accuracy aggregates of training and evaluation
package stats

import "fmt"
import "io"
import "math"
import "time"

// Statistics accumulates the loss and word counts of a window of batches.
// All counts only grow inside a window; a new window starts with New.
type Statistics struct {
	Loss      float64 // summed loss over target words
	NCorrect  int     // correctly predicted target words
	NWords    int     // target words, padding excluded
	NSrcWords int     // source words
	NBatches  int     // merged batches

	start time.Time
}

// New starts a new accumulation window
func New() Statistics {
	return Statistics{start: time.Now()}
}

// Batch is the aggregate produced by one forward pass
func Batch(loss float64, nCorrect, nWords int) Statistics {
	return Statistics{Loss: loss, NCorrect: nCorrect, NWords: nWords}
}

// Update merges the statistics of one batch into s
func (s *Statistics) Update(o Statistics) {
	s.Loss += o.Loss
	s.NCorrect += o.NCorrect
	s.NWords += o.NWords
	s.NSrcWords += o.NSrcWords
	if o.NBatches == 0 {
		s.NBatches++
	} else {
		s.NBatches += o.NBatches
	}
}

// Merge combines two windows. It is associative and commutative; the earlier start time is kept.
func Merge(a, b Statistics) Statistics {
	var o = Statistics{
		Loss:      a.Loss + b.Loss,
		NCorrect:  a.NCorrect + b.NCorrect,
		NWords:    a.NWords + b.NWords,
		NSrcWords: a.NSrcWords + b.NSrcWords,
		NBatches:  a.NBatches + b.NBatches,
		start:     a.start,
	}
	if o.start.IsZero() || (!b.start.IsZero() && b.start.Before(o.start)) {
		o.start = b.start
	}
	return o
}

// Perplexity returns exp(Loss/NWords), NaN when no words were seen
func (s Statistics) Perplexity() float64 {
	if s.NWords == 0 {
		return math.NaN()
	}
	return math.Exp(s.Loss / float64(s.NWords))
}

// Accuracy returns NCorrect/NWords, NaN when no words were seen
func (s Statistics) Accuracy() float64 {
	if s.NWords == 0 {
		return math.NaN()
	}
	return float64(s.NCorrect) / float64(s.NWords)
}

// Elapsed returns the time since the window started
func (s Statistics) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

// SourceRate returns source words per second of the window, NaN before any time passed
func (s Statistics) SourceRate() float64 {
	return s.rate(s.Elapsed())
}

func (s Statistics) rate(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return math.NaN()
	}
	return float64(s.NSrcWords) / elapsed.Seconds()
}

// Output writes the progress line of a report window
func (s Statistics) Output(w io.Writer, epoch, batch, batches int, runStart time.Time, gradNorm float64) {
	fmt.Fprintf(w, "Epoch %2d, %5d/%5d; acc: %6.2f; ppl: %6.2f; %3.0f src tok/s; %6.0f s elapsed; grad_norm: %.4f\n",
		epoch, batch, batches, 100*s.Accuracy(), s.Perplexity(), s.SourceRate(),
		time.Since(runStart).Seconds(), gradNorm)
}
