// Package checkpoint implements the score gated model persistence of a training run
package checkpoint

import "encoding"
import "io"
import "log"

import "github.com/pkg/errors"

// ErrNoSnapshot is returned when restoring before anything was persisted
var ErrNoSnapshot = errors.New("no snapshot persisted")

// Model is a model whose parameters can be saved and restored
type Model interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Snapshot is the model state offered to the policy, with where in the run it was taken
type Snapshot struct {
	Model encoding.BinaryMarshaler
	Epoch int
	Step  int
}

// Meta describes a persisted snapshot
type Meta struct {
	RunID string  `json:"run_id"`
	Epoch int     `json:"epoch"`
	Step  int     `json:"step"`
	Score float64 `json:"score"`
}

// Store persists snapshots, each Save overwriting the previous one
type Store interface {
	Save(meta Meta, m encoding.BinaryMarshaler) error
	Load(m encoding.BinaryUnmarshaler) (Meta, error)
}

// Policy keeps the best score seen so far and persists every snapshot that reaches it
type Policy struct {
	RunID string

	best      float64
	persisted bool
	store     Store

	l *log.Logger
}

// NewPolicy returns a policy whose best score starts at 0
func NewPolicy(store Store, runID string) *Policy {
	return &Policy{store: store, RunID: runID}
}

// SetLogger sets where persist decisions are printed
func (p *Policy) SetLogger(w io.Writer) {
	p.l = log.New(w, "", 0)
}

// Best returns the best score so far
func (p *Policy) Best() float64 {
	return p.best
}

// Resumed takes over a snapshot already in the store, so later candidates must reach its score
func (p *Policy) Resumed(meta Meta) {
	p.best = meta.Score
	p.persisted = true
}

// Persisted reports whether any snapshot was saved
func (p *Policy) Persisted() bool {
	return p.persisted
}

// MaybeCheckpoint persists s when score >= Best(), ties going to the newer model.
// It reports whether the snapshot was persisted.
func (p *Policy) MaybeCheckpoint(score float64, s Snapshot) (bool, error) {
	if score < p.best {
		if p.l != nil {
			p.l.Printf("score %.2f below best %.2f, not saved", score, p.best)
		}
		return false, nil
	}
	meta := Meta{RunID: p.RunID, Epoch: s.Epoch, Step: s.Step, Score: score}
	if err := p.store.Save(meta, s.Model); err != nil {
		return false, errors.Wrap(err, "checkpoint")
	}
	p.best = score
	p.persisted = true
	if p.l != nil {
		p.l.Printf("score %.2f saved (epoch %d step %d)", score, s.Epoch, s.Step)
	}
	return true, nil
}

// Restore loads the persisted snapshot into m
func (p *Policy) Restore(m encoding.BinaryUnmarshaler) (Meta, error) {
	if !p.persisted {
		return Meta{}, ErrNoSnapshot
	}
	meta, err := p.store.Load(m)
	return meta, errors.Wrap(err, "restore")
}

// Memory is a Store keeping the snapshot in memory
type Memory struct {
	meta  Meta
	data  []byte
	Saves int
}

// Save implements Store
func (s *Memory) Save(meta Meta, m encoding.BinaryMarshaler) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	s.meta, s.data = meta, data
	s.Saves++
	return nil
}

// Load implements Store
func (s *Memory) Load(m encoding.BinaryUnmarshaler) (Meta, error) {
	if s.data == nil {
		return Meta{}, ErrNoSnapshot
	}
	return s.meta, m.UnmarshalBinary(s.data)
}
