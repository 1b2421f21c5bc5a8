package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/batcher"
import "github.com/neurlang/seq2seq/checkpoint"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/evaluator"
import "github.com/neurlang/seq2seq/history"
import "github.com/neurlang/seq2seq/stats"

// Quality runs CalculateQuality on corpus with the validation batch size.
// It holds the read side of the phase lock, so no step runs meanwhile.
func (t *Trainer) Quality(corpus datasets.Corpus, key string) (evaluator.Result, error) {
	t.phase.RLock()
	defer t.phase.RUnlock()
	return t.quality(corpus, key)
}

func (t *Trainer) quality(corpus datasets.Corpus, key string) (evaluator.Result, error) {
	var ev = *t.Evaluator
	ev.Batch = t.evalBatch()
	return ev.CalculateQuality(t.Model, corpus, key)
}

// evaluate scores the validation corpus and offers the model to the checkpoint policy.
// The read lock spans both, so the persisted snapshot is the scored one.
func (t *Trainer) evaluate(epoch int) error {
	t.phase.RLock()
	r, err := t.quality(t.Valid, "Dev Bleu")
	if err != nil {
		t.phase.RUnlock()
		return errors.Wrapf(err, "evaluate at step %d", t.steps)
	}
	persisted, err := t.Policy.MaybeCheckpoint(r.Score.BLEU, checkpoint.Snapshot{Model: t.Model, Epoch: epoch, Step: t.steps})
	t.phase.RUnlock()
	if err != nil {
		return errors.Wrapf(err, "step %d", t.steps)
	}
	if t.Journal != nil {
		err := t.Journal.Evaluated(t.Policy.RunID, history.Evaluation{
			Epoch:       epoch,
			Step:        t.steps,
			BLEU:        r.Score.BLEU,
			Persisted:   persisted,
			Fingerprint: r.Fingerprint,
		})
		if err != nil {
			t.printf("journal: %v", err)
		}
	}
	return nil
}

// validate runs a forward only pass over the validation corpus in length sorted batches
func (t *Trainer) validate() (stats.Statistics, error) {
	t.phase.RLock()
	defer t.phase.RUnlock()

	var valid = stats.New()
	sampler, err := batcher.Fixed(t.Valid, t.evalBatch(), batcher.LengthKey)
	if err != nil {
		return valid, err
	}
	t.Model.Eval()
	for b, ok := sampler.Next(); ok; b, ok = sampler.Next() {
		_, st, err := t.Model.Forward(batcher.PadBatch(b, t.EOS, t.BOS))
		if err != nil {
			return valid, errors.Wrap(err, "forward")
		}
		st.NSrcWords = batcher.SourceWords(b)
		valid.Update(st)
	}
	return valid, nil
}
