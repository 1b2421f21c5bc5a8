package trainer

import "context"
import "io"
import "log"
import "math/rand"
import "sync"
import "time"

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/checkpoint"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/evaluator"
import "github.com/neurlang/seq2seq/history"
import "github.com/neurlang/seq2seq/stats"

// Journal records evaluations and epochs of a run
type Journal interface {
	Evaluated(run string, e history.Evaluation) error
	Finished(run string, e history.Epoch) error
}

// Trainer runs the epochs of one training run
type Trainer struct {
	Epochs      int
	WBatchSize  int // token budget of a training batch
	BatchSize   int // validation passes use a quarter of it
	ReportEvery int
	EvalEvery   int // global steps between validation BLEU passes
	NoBLEU      bool
	EOS, BOS    int

	Train, Valid, Test datasets.Corpus
	Vocab              datasets.Vocabulary
	DevHyp, TestHyp    string // hypothesis files written after training, empty to skip

	Model     Model
	Optimizer Optimizer
	Policy    *checkpoint.Policy
	Evaluator *evaluator.Evaluator
	Journal   Journal    // optional
	Report    ReportFunc // optional, defaults to NewReportFunc on the logger

	rng   *rand.Rand
	phase sync.RWMutex
	steps int
	l     *log.Logger
}

// Epoch is the summary of one finished epoch
type Epoch struct {
	Train stats.Statistics
	Valid stats.Statistics
}

// Summary is the outcome of Run
type Summary struct {
	Steps  int
	Best   float64
	Epochs []Epoch
	Dev    evaluator.Result
	Test   evaluator.Result
}

// New returns a trainer whose batch shuffling is seeded with seed
func New(m Model, opt Optimizer, policy *checkpoint.Policy, ev *evaluator.Evaluator, seed int64) *Trainer {
	return &Trainer{
		Epochs:      1,
		ReportEvery: 50,
		EvalEvery:   1000,
		Model:       m,
		Optimizer:   opt,
		Policy:      policy,
		Evaluator:   ev,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// SetLogger sets where progress is printed
func (t *Trainer) SetLogger(w io.Writer) {
	t.l = log.New(w, "", 0)
}

func (t *Trainer) writer() io.Writer {
	if t.l == nil {
		return io.Discard
	}
	return t.l.Writer()
}

func (t *Trainer) printf(format string, v ...interface{}) {
	if t.l != nil {
		t.l.Printf(format, v...)
	}
}

// Steps returns the global step count
func (t *Trainer) Steps() int {
	return t.steps
}

func (t *Trainer) check() error {
	switch {
	case t.Model == nil || t.Optimizer == nil || t.Policy == nil || t.Evaluator == nil:
		return errors.New("trainer needs a model, optimizer, checkpoint policy and evaluator")
	case t.Epochs < 0:
		return errors.Errorf("epochs %d", t.Epochs)
	case t.WBatchSize <= 0:
		return errors.Errorf("token budget %d", t.WBatchSize)
	case t.ReportEvery <= 0 || t.EvalEvery <= 0:
		return errors.Errorf("report every %d eval every %d", t.ReportEvery, t.EvalEvery)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(1))
	}
	return nil
}

func (t *Trainer) evalBatch() int {
	if t.BatchSize/4 < 1 {
		return 1
	}
	return t.BatchSize / 4
}

// IterPerEpoch approximates the batches of an epoch from the token counts of the training corpus
func (t *Trainer) IterPerEpoch() int {
	src, tgt := t.Train.Words()
	if t.WBatchSize <= 0 {
		return 0
	}
	return (src + tgt) / t.WBatchSize
}

// Run trains for all epochs, reloads the best checkpoint and scores the dev and test corpora.
// A cancelled ctx stops the run between steps and returns its error.
func (t *Trainer) Run(ctx context.Context) (s Summary, err error) {
	if err = t.check(); err != nil {
		return s, err
	}
	var start = time.Now()
	var iters = t.IterPerEpoch()
	t.printf("Approximate number of iter/epoch = %d", iters)
	for epoch := 0; epoch < t.Epochs; epoch++ {
		e, err := t.epoch(ctx, epoch, iters, start)
		if err != nil {
			s.Steps, s.Best = t.steps, t.Policy.Best()
			return s, err
		}
		s.Epochs = append(s.Epochs, e)
	}
	s.Steps = t.steps
	if err = t.finish(&s); err != nil {
		return s, err
	}
	s.Best = t.Policy.Best()
	return s, nil
}

// finish reloads the last persisted snapshot and writes the dev and test hypotheses
func (t *Trainer) finish(s *Summary) (err error) {
	if meta, err := t.Policy.Restore(t.Model); err != nil {
		if errors.Cause(err) != checkpoint.ErrNoSnapshot {
			return err
		}
		t.printf("no checkpoint was persisted, scoring the final model")
	} else {
		t.printf("restored checkpoint of epoch %d step %d (BLEU %.2f)", meta.Epoch, meta.Step, meta.Score)
	}

	t.printf("Dev Set BLEU Score")
	if s.Dev, err = t.Quality(t.Valid, "Dev Bleu"); err != nil {
		return err
	}
	if err = t.write(t.DevHyp, s.Dev.Hypotheses); err != nil {
		return err
	}
	t.printf("Test Set BLEU Score")
	if s.Test, err = t.Quality(t.Test, "Test Bleu"); err != nil {
		return err
	}
	return t.write(t.TestHyp, s.Test.Hypotheses)
}

func (t *Trainer) write(name string, hyps [][]int) error {
	if name == "" {
		return nil
	}
	return t.Vocab.WriteHypotheses(name, hyps)
}
