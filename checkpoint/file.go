package checkpoint

import "compress/lzw"
import "encoding"
import "encoding/json"
import "os"
import "path/filepath"

import "github.com/neurlang/quaternary"
import "github.com/pkg/errors"

// File is a Store writing an lzw compressed JSON envelope to Path
type File struct {
	Path string

	coverage []byte
}

type envelope struct {
	Meta
	CoverageBytes int    `json:"coverage_bytes"`
	Coverage      []byte `json:"coverage,omitempty"`
	Model         []byte `json:"model"`
}

// SetCoverage records a compact filter of the token ids the model was trained on
func (f *File) SetCoverage(ids map[uint32]bool) int {
	if len(ids) == 0 {
		f.coverage = nil
		return 0
	}
	f.coverage = []byte(quaternary.Make(ids))
	return len(f.coverage)
}

// Coverage returns the filter recorded by SetCoverage or read by Load
func (f *File) Coverage() []byte {
	return f.coverage
}

// Save implements Store. The file is replaced atomically.
func (f *File) Save(meta Meta, m encoding.BinaryMarshaler) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal model")
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "checkpoint dir")
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "checkpoint temp file")
	}
	defer os.Remove(tmp.Name())

	lw := lzw.NewWriter(tmp, lzw.LSB, 8)
	err = json.NewEncoder(lw).Encode(envelope{
		Meta:          meta,
		CoverageBytes: len(f.coverage),
		Coverage:      f.coverage,
		Model:         data,
	})
	if cerr := lw.Close(); err == nil {
		err = cerr
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "write checkpoint")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.Path), "replace checkpoint")
}

// Load implements Store
func (f *File) Load(m encoding.BinaryUnmarshaler) (Meta, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return Meta{}, errors.Wrap(err, "open checkpoint")
	}
	defer file.Close()
	lr := lzw.NewReader(file, lzw.LSB, 8)
	defer lr.Close()

	var env envelope
	if err := json.NewDecoder(lr).Decode(&env); err != nil {
		return Meta{}, errors.Wrapf(err, "decode checkpoint %s", f.Path)
	}
	if err := m.UnmarshalBinary(env.Model); err != nil {
		return Meta{}, errors.Wrapf(err, "unmarshal model from %s", f.Path)
	}
	f.coverage = env.Coverage
	return env.Meta, nil
}

// Resume loads the checkpoint at path into m when resume is set and the file exists
func Resume(m encoding.BinaryUnmarshaler, resume bool, path string) (Meta, bool, error) {
	if !resume || path == "" {
		return Meta{}, false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Meta{}, false, nil
	}
	var f = File{Path: path}
	meta, err := f.Load(m)
	if err != nil {
		return Meta{}, false, err
	}
	return meta, true, nil
}
