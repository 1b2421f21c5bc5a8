// Package history journals the evaluations and epochs of training runs in sqlite
package history

import "database/sql"
import "encoding/json"
import "time"

import "github.com/pkg/errors"
import _ "modernc.org/sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started TEXT NOT NULL,
	config TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS evaluations (
	run TEXT NOT NULL REFERENCES runs(id),
	epoch INTEGER NOT NULL,
	step INTEGER NOT NULL,
	bleu REAL NOT NULL,
	persisted INTEGER NOT NULL,
	fingerprint TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS epochs (
	run TEXT NOT NULL REFERENCES runs(id),
	epoch INTEGER NOT NULL,
	train_ppl REAL,
	train_acc REAL,
	valid_ppl REAL,
	valid_acc REAL
);
`

// Journal is an open evaluation journal
type Journal struct {
	db *sql.DB
}

// Evaluation is one cadence BLEU measurement
type Evaluation struct {
	Epoch       int
	Step        int
	BLEU        float64
	Persisted   bool
	Fingerprint [32]byte
}

// Epoch is the summary of one finished epoch
type Epoch struct {
	Epoch    int
	TrainPPL float64
	TrainAcc float64
	ValidPPL float64
	ValidAcc float64
}

// Open opens or creates the journal at path
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create journal %s", path)
	}
	return &Journal{db: db}, nil
}

// Close closes the journal
func (j *Journal) Close() error {
	return j.db.Close()
}

// Start records a run and its configuration
func (j *Journal) Start(run string, config interface{}) error {
	data, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "journal config")
	}
	_, err = j.db.Exec(`INSERT INTO runs (id, started, config) VALUES (?, ?, ?)`,
		run, time.Now().UTC().Format(time.RFC3339), string(data))
	return errors.Wrapf(err, "journal run %s", run)
}

// Evaluated records a cadence evaluation
func (j *Journal) Evaluated(run string, e Evaluation) error {
	_, err := j.db.Exec(`INSERT INTO evaluations (run, epoch, step, bleu, persisted, fingerprint) VALUES (?, ?, ?, ?, ?, ?)`,
		run, e.Epoch, e.Step, e.BLEU, e.Persisted, hexString(e.Fingerprint))
	return errors.Wrap(err, "journal evaluation")
}

// Finished records an epoch summary. NaN readouts are stored as NULL.
func (j *Journal) Finished(run string, e Epoch) error {
	_, err := j.db.Exec(`INSERT INTO epochs (run, epoch, train_ppl, train_acc, valid_ppl, valid_acc) VALUES (?, ?, ?, ?, ?, ?)`,
		run, e.Epoch, nullable(e.TrainPPL), nullable(e.TrainAcc), nullable(e.ValidPPL), nullable(e.ValidAcc))
	return errors.Wrap(err, "journal epoch")
}

// Best returns the best recorded BLEU of a run and whether any evaluation exists
func (j *Journal) Best(run string) (float64, bool, error) {
	var best sql.NullFloat64
	err := j.db.QueryRow(`SELECT MAX(bleu) FROM evaluations WHERE run = ?`, run).Scan(&best)
	if err != nil {
		return 0, false, errors.Wrap(err, "journal best")
	}
	return best.Float64, best.Valid, nil
}

// Evaluations returns the evaluations of a run in recording order
func (j *Journal) Evaluations(run string) ([]Evaluation, error) {
	rows, err := j.db.Query(`SELECT epoch, step, bleu, persisted, fingerprint FROM evaluations WHERE run = ? ORDER BY rowid`, run)
	if err != nil {
		return nil, errors.Wrap(err, "journal evaluations")
	}
	defer rows.Close()
	var out []Evaluation
	for rows.Next() {
		var e Evaluation
		var fp string
		if err := rows.Scan(&e.Epoch, &e.Step, &e.BLEU, &e.Persisted, &fp); err != nil {
			return nil, errors.Wrap(err, "journal evaluations")
		}
		e.Fingerprint = parseHex(fp)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "journal evaluations")
}
