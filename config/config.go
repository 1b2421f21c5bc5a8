// Package config holds the options of a translation training run
package config

import "os"

import "github.com/pkg/errors"
import "gopkg.in/yaml.v3"

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid config")

// Config is the full set of run options
type Config struct {
	Input string `yaml:"input" json:"input"`
	Data  string `yaml:"data" json:"data"`

	Epoch           int  `yaml:"epoch" json:"epoch"`
	BatchSize       int  `yaml:"batchsize" json:"batchsize"`
	WBatchSize      int  `yaml:"wbatchsize" json:"wbatchsize"`
	BeamSize        int  `yaml:"beam_size" json:"beam_size"`
	MaxDecodeLength int  `yaml:"max_decode_len" json:"max_decode_len"`
	ReportEvery     int  `yaml:"report_every" json:"report_every"`
	EvalEvery       int  `yaml:"eval_every" json:"eval_every"`
	NoBLEU          bool `yaml:"no_bleu" json:"no_bleu"`

	GPU     int   `yaml:"gpu" json:"gpu"`
	Seed    int64 `yaml:"seed" json:"seed"`
	Threads int   `yaml:"threads" json:"threads"`

	ModelFile   string `yaml:"model_file" json:"model_file"`
	DevHyp      string `yaml:"dev_hyp" json:"dev_hyp"`
	TestHyp     string `yaml:"test_hyp" json:"test_hyp"`
	HistoryFile string `yaml:"history_file" json:"history_file"`
	Resume      bool   `yaml:"resume" json:"resume"`

	Unit           int     `yaml:"unit" json:"unit"`
	Dropout        float64 `yaml:"dropout" json:"dropout"`
	LabelSmoothing float64 `yaml:"label_smoothing" json:"label_smoothing"`
	WarmupSteps    int     `yaml:"warmup_steps" json:"warmup_steps"`

	EOS int `yaml:"eos" json:"eos"`
	BOS int `yaml:"bos" json:"bos"`
}

// Default returns the options used when nothing is overridden
func Default() Config {
	return Config{
		Input:           "data",
		Data:            "processed",
		Epoch:           20,
		BatchSize:       60,
		WBatchSize:      3000,
		BeamSize:        5,
		MaxDecodeLength: 50,
		ReportEvery:     50,
		EvalEvery:       1000,
		GPU:             -1,
		Seed:            1,
		ModelFile:       "results/model_best.json.lzw",
		DevHyp:          "results/valid.out",
		TestHyp:         "results/test.out",
		Unit:            512,
		Dropout:         0.1,
		LabelSmoothing:  0.1,
		WarmupSteps:     4000,
		EOS:             0,
		BOS:             2,
	}
}

// Load overlays the YAML file at path on the defaults
func Load(path string) (Config, error) {
	var c = Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parse config %s", path)
	}
	return c, nil
}

// Validate rejects options the training loop cannot run with
func (c *Config) Validate() error {
	var positive = []struct {
		name  string
		value int
	}{
		{"epoch", c.Epoch},
		{"batchsize", c.BatchSize},
		{"wbatchsize", c.WBatchSize},
		{"report_every", c.ReportEvery},
		{"eval_every", c.EvalEvery},
		{"max_decode_len", c.MaxDecodeLength},
		{"unit", c.Unit},
		{"warmup_steps", c.WarmupSteps},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errors.Wrapf(ErrInvalid, "%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.ModelFile == "" {
		return errors.Wrap(ErrInvalid, "model_file is empty")
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return errors.Wrapf(ErrInvalid, "dropout %v outside [0, 1)", c.Dropout)
	}
	if c.LabelSmoothing < 0 || c.LabelSmoothing >= 1 {
		return errors.Wrapf(ErrInvalid, "label_smoothing %v outside [0, 1)", c.LabelSmoothing)
	}
	if c.EOS < 0 || c.BOS < 0 || c.EOS == c.BOS {
		return errors.Wrapf(ErrInvalid, "eos %d bos %d", c.EOS, c.BOS)
	}
	return nil
}

// EvalBatch is the sentence batch of validation passes, a quarter of BatchSize
func (c *Config) EvalBatch() int {
	if c.BatchSize/4 < 1 {
		return 1
	}
	return c.BatchSize / 4
}
