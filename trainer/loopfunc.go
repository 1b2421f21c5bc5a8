package trainer

import "context"
import "io"
import "time"

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/batcher"
import "github.com/neurlang/seq2seq/history"
import "github.com/neurlang/seq2seq/stats"

// ReportFunc is called after every step with the report window and returns the window to keep using
type ReportFunc func(epoch, batch, numBatches int, start time.Time, report stats.Statistics, every int, gradNorm float64) stats.Statistics

// NewReportFunc prints the report window to w on every last step of a reporting period and starts a new window
func NewReportFunc(w io.Writer) ReportFunc {
	return func(epoch, batch, numBatches int, start time.Time, report stats.Statistics, every int, gradNorm float64) stats.Statistics {
		if batch%every == every-1 {
			report.Output(w, epoch, batch+1, numBatches, start, gradNorm)
			return stats.New()
		}
		return report
	}
}

type window struct {
	report   stats.Statistics
	train    stats.Statistics
	gradNorm float64 // sum over the steps of the epoch
}

func (t *Trainer) epoch(ctx context.Context, epoch, iters int, start time.Time) (e Epoch, err error) {
	t.Train.Shuffle(t.rng)
	sampler, err := batcher.Pool(t.Train, t.WBatchSize, batcher.LengthKey, batcher.Tokens, t.rng)
	if err != nil {
		return e, err
	}
	var report = t.Report
	if report == nil {
		report = NewReportFunc(t.writer())
	}
	var w = window{report: stats.New(), train: stats.New()}

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return e, errors.Wrapf(err, "epoch %d step %d", epoch, step)
		}
		b, ok := sampler.Next()
		if !ok {
			break
		}
		t.steps++
		if err := t.step(b, &w); err != nil {
			return e, errors.Wrapf(err, "epoch %d step %d", epoch, step)
		}
		w.report = report(epoch, step, iters, start, w.report, t.ReportEvery, w.gradNorm/float64(step+1))

		if !t.NoBLEU && t.steps%t.EvalEvery == 0 {
			if err := t.evaluate(epoch); err != nil {
				return e, err
			}
		}
	}

	valid, err := t.validate()
	if err != nil {
		return e, errors.Wrapf(err, "validate epoch %d", epoch)
	}
	e = Epoch{Train: w.train, Valid: valid}
	t.printf("Train perplexity: %g", w.train.Perplexity())
	t.printf("Train accuracy: %g", w.train.Accuracy())
	t.printf("Validation perplexity: %g", valid.Perplexity())
	t.printf("Validation accuracy: %g", valid.Accuracy())
	if t.Journal != nil {
		err := t.Journal.Finished(t.Policy.RunID, history.Epoch{
			Epoch:    epoch,
			TrainPPL: w.train.Perplexity(),
			TrainAcc: w.train.Accuracy(),
			ValidPPL: valid.Perplexity(),
			ValidAcc: valid.Accuracy(),
		})
		if err != nil {
			t.printf("journal: %v", err)
		}
	}
	return e, nil
}

// step runs one gradient update. It holds the write side of the phase lock.
func (t *Trainer) step(b batcher.Batch, w *window) error {
	t.phase.Lock()
	defer t.phase.Unlock()

	t.Model.Train()
	t.Optimizer.ZeroGrad()

	loss, st, err := t.Model.Forward(batcher.PadBatch(b, t.EOS, t.BOS))
	if err != nil {
		return errors.Wrap(err, "forward")
	}
	st.NSrcWords = batcher.SourceWords(b)
	if err := loss.Backward(); err != nil {
		return errors.Wrap(err, "backward")
	}
	w.gradNorm += GradNorm(t.Model.Parameters())
	if err := t.Optimizer.Step(); err != nil {
		return errors.Wrap(err, "optimizer step")
	}
	w.report.Update(st)
	w.train.Update(st)
	return nil
}
