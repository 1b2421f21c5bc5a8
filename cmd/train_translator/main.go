package main

import "context"
import "encoding/json"
import "flag"
import "fmt"
import "io"
import "os"
import "os/signal"

import "github.com/google/uuid"
import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/checkpoint"
import "github.com/neurlang/seq2seq/config"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/device"
import "github.com/neurlang/seq2seq/evaluator"
import "github.com/neurlang/seq2seq/history"
import "github.com/neurlang/seq2seq/learning"
import "github.com/neurlang/seq2seq/net/lexical"
import "github.com/neurlang/seq2seq/trainer"

func bind(fs *flag.FlagSet, c *config.Config) {
	fs.StringVar(&c.Input, "input", c.Input, "directory holding the dataset files")
	fs.StringVar(&c.Data, "data", c.Data, "dataset name, files are <input>/<data>.{train,valid,test,vocab}.json")
	fs.IntVar(&c.Epoch, "epoch", c.Epoch, "number of epochs")
	fs.IntVar(&c.BatchSize, "batchsize", c.BatchSize, "sentences per batch, validation uses a quarter")
	fs.IntVar(&c.WBatchSize, "wbatchsize", c.WBatchSize, "tokens per training batch")
	fs.IntVar(&c.BeamSize, "beam_size", c.BeamSize, "beam width, 1 is greedy")
	fs.IntVar(&c.MaxDecodeLength, "max_decode_len", c.MaxDecodeLength, "longest generated translation")
	fs.IntVar(&c.ReportEvery, "report_every", c.ReportEvery, "steps between progress lines")
	fs.IntVar(&c.EvalEvery, "eval_every", c.EvalEvery, "steps between dev BLEU checkpoints")
	fs.BoolVar(&c.NoBLEU, "no_bleu", c.NoBLEU, "skip dev BLEU checkpoints")
	fs.IntVar(&c.GPU, "gpu", c.GPU, "gpu ordinal, negative for cpu")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.IntVar(&c.Threads, "threads", c.Threads, "decoding threads, 0 for all cores")
	fs.StringVar(&c.ModelFile, "model_file", c.ModelFile, "best model destination .json.lzw file")
	fs.StringVar(&c.DevHyp, "dev_hyp", c.DevHyp, "dev hypotheses output")
	fs.StringVar(&c.TestHyp, "test_hyp", c.TestHyp, "test hypotheses output")
	fs.StringVar(&c.HistoryFile, "history_file", c.HistoryFile, "sqlite evaluation journal, empty to disable")
	fs.BoolVar(&c.Resume, "resume", c.Resume, "resume training from model_file")
	fs.IntVar(&c.Unit, "unit", c.Unit, "model width")
	fs.Float64Var(&c.Dropout, "dropout", c.Dropout, "dropout rate")
	fs.Float64Var(&c.LabelSmoothing, "label_smoothing", c.LabelSmoothing, "label smoothing")
	fs.IntVar(&c.WarmupSteps, "warmup_steps", c.WarmupSteps, "learning rate warmup steps")
	fs.IntVar(&c.EOS, "eos", c.EOS, "end of sentence id")
	fs.IntVar(&c.BOS, "bos", c.BOS, "beginning of sentence id")
}

// parse reads the flags, overlays the yaml file and then the explicitly set flags again
func parse(args []string) (config.Config, string, error) {
	var c = config.Default()
	fs := flag.NewFlagSet("train_translator", flag.ContinueOnError)
	bind(fs, &c)
	file := fs.String("config", "", "yaml config file")
	logfile := fs.String("logfile", "", "also append the log to this file")
	fs.Bool("pgo", false, "enable pgo")
	if err := fs.Parse(args); err != nil {
		return c, "", err
	}
	if *file != "" {
		var explicit = make(map[string]string)
		fs.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})
		loaded, err := config.Load(*file)
		if err != nil {
			return c, "", err
		}
		c = loaded
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return c, "", err
			}
		}
	}
	return c, *logfile, c.Validate()
}

// outputDirs creates the directories of the files written during and after training
func outputDirs(c config.Config) error {
	for _, name := range []string{c.ModelFile, c.DevHyp, c.TestHyp, c.HistoryFile} {
		if name == "" {
			continue
		}
		if err := datasets.MakeOutputDir(name); err != nil {
			return err
		}
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	c, logfile, err := parse(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fatal(err)
	}
	var w io.Writer = os.Stderr
	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			fatal(errors.Wrap(err, "log file"))
		}
		defer f.Close()
		w = io.MultiWriter(os.Stderr, f)
	}
	dump, _ := json.MarshalIndent(c, "", "    ")
	fmt.Fprintln(w, string(dump))

	dev, err := device.Select(c.GPU)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintln(w, dev)
	if c.Threads <= 0 {
		c.Threads = dev.Threads
	}

	if err := outputDirs(c); err != nil {
		fatal(err)
	}

	splits, vocab, err := datasets.LoadSplits(c.Input, c.Data)
	if err != nil {
		fatal(err)
	}
	for _, split := range []datasets.Corpus{splits.Train, splits.Valid, splits.Test} {
		if err := vocab.Check(split); err != nil {
			fatal(err)
		}
	}

	model, err := lexical.New(lexical.Config{
		Vocab:          len(vocab),
		Unit:           c.Unit,
		EOS:            c.EOS,
		Dropout:        c.Dropout,
		LabelSmoothing: c.LabelSmoothing,
		Seed:           c.Seed,
	})
	if err != nil {
		fatal(err)
	}
	trainer.TallyParameters(model.Parameters()).Print(w)

	h := learning.Defaults(c.Unit, c.WarmupSteps)
	h.SetLogger(w)
	opt := learning.NewAdam(h, model.Parameters())

	runID := uuid.New().String()
	file := &checkpoint.File{Path: c.ModelFile}
	fmt.Fprintln(w, "target coverage filter:", file.SetCoverage(splits.Train.TargetIds()), "bytes")
	policy := checkpoint.NewPolicy(file, runID)
	policy.SetLogger(w)

	ev := &evaluator.Evaluator{MaxLength: c.MaxDecodeLength, Beam: c.BeamSize, EOS: c.EOS, BOS: c.BOS, Threads: c.Threads}
	ev.SetLogger(w)

	t := trainer.New(model, opt, policy, ev, c.Seed)
	t.SetLogger(w)
	t.Epochs = c.Epoch
	t.WBatchSize = c.WBatchSize
	t.BatchSize = c.BatchSize
	t.ReportEvery = c.ReportEvery
	t.EvalEvery = c.EvalEvery
	t.NoBLEU = c.NoBLEU
	t.EOS, t.BOS = c.EOS, c.BOS
	t.Train, t.Valid, t.Test = splits.Train, splits.Valid, splits.Test
	t.Vocab = vocab
	t.DevHyp, t.TestHyp = c.DevHyp, c.TestHyp

	if _, err := t.Resume(c.Resume, file); err != nil {
		fatal(err)
	}
	if c.HistoryFile != "" {
		j, err := history.Open(c.HistoryFile)
		if err != nil {
			fatal(err)
		}
		defer j.Close()
		if err := j.Start(runID, c); err != nil {
			fatal(err)
		}
		t.Journal = j
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Fprintln(w, "run", runID)
	s, err := t.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "interrupted after %d steps, best dev BLEU %.2f\n", s.Steps, s.Best)
		os.Exit(130)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(w, "finished %d steps, best dev BLEU %.2f, dev %.2f, test %.2f\n",
		s.Steps, s.Best, s.Dev.Score.BLEU, s.Test.Score.BLEU)
}
