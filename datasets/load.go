package datasets

import "compress/lzw"
import "encoding/json"
import "io"
import "os"
import "strings"
import "unicode"

import "github.com/pkg/errors"

// ErrFormat is returned when a corpus or vocabulary file is malformed
var ErrFormat = errors.New("malformed dataset")

// open opens a dataset file, decompressing .lzw files on the fly
func open(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".lzw") {
		return file, nil
	}
	return readCloser{lzw.NewReader(file, lzw.LSB, 8), file}, nil
}

type readCloser struct {
	io.ReadCloser
	file *os.File
}

func (r readCloser) Close() error {
	err := r.ReadCloser.Close()
	if ferr := r.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// ReadCorpus decodes a JSON array of [source ids, target ids] pairs
func ReadCorpus(r io.Reader) (Corpus, error) {
	var raw [][][]int
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}
	var c = make(Corpus, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return nil, errors.Wrapf(ErrFormat, "example %d has %d sides", i, len(pair))
		}
		for _, side := range pair {
			for _, v := range side {
				if v < 0 {
					return nil, errors.Wrapf(ErrFormat, "example %d has negative id %d", i, v)
				}
			}
		}
		c = append(c, Example{Source: pair[0], Target: pair[1]})
	}
	return c, nil
}

// LoadCorpus loads a corpus split from a file
func LoadCorpus(name string) (Corpus, error) {
	f, err := open(name)
	if err != nil {
		return nil, errors.Wrap(err, "load corpus")
	}
	defer f.Close()
	c, err := ReadCorpus(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load corpus %s", name)
	}
	return c, nil
}

// WriteCorpus encodes the corpus in the format understood by ReadCorpus
func WriteCorpus(w io.Writer, c Corpus) error {
	var raw = make([][2][]int, len(c))
	for i, ex := range c {
		raw[i] = [2][]int{nonNil(ex.Source), nonNil(ex.Target)}
	}
	return json.NewEncoder(w).Encode(raw)
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

// ReadVocabulary decodes a JSON array of token strings, index being the id
func ReadVocabulary(r io.Reader) (Vocabulary, error) {
	var v Vocabulary
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}
	if len(v) == 0 {
		return nil, errors.Wrap(ErrFormat, "empty vocabulary")
	}
	for id, tok := range v {
		if tok == "" || strings.IndexFunc(tok, unicode.IsSpace) >= 0 {
			return nil, errors.Wrapf(ErrFormat, "token %d %q is empty or holds white space", id, tok)
		}
	}
	return v, nil
}

// LoadVocabulary loads the vocabulary from a file
func LoadVocabulary(name string) (Vocabulary, error) {
	f, err := open(name)
	if err != nil {
		return nil, errors.Wrap(err, "load vocabulary")
	}
	defer f.Close()
	v, err := ReadVocabulary(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load vocabulary %s", name)
	}
	return v, nil
}

// Splits holds the three corpora used by a training run
type Splits struct {
	Train, Valid, Test Corpus
}

// LoadSplits loads <dir>/<name>.{train,valid,test}.json and <dir>/<name>.vocab.json
func LoadSplits(dir, name string) (s Splits, v Vocabulary, err error) {
	var prefix = strings.TrimSuffix(dir, "/") + "/" + name
	if s.Train, err = LoadCorpus(prefix + ".train.json"); err != nil {
		return
	}
	if s.Valid, err = LoadCorpus(prefix + ".valid.json"); err != nil {
		return
	}
	if s.Test, err = LoadCorpus(prefix + ".test.json"); err != nil {
		return
	}
	v, err = LoadVocabulary(prefix + ".vocab.json")
	return
}

// Check verifies that every id in the corpus is a valid vocabulary id
func (v Vocabulary) Check(c Corpus) error {
	for i, ex := range c {
		for _, side := range [2][]int{ex.Source, ex.Target} {
			for _, id := range side {
				if id >= len(v) {
					return errors.Wrapf(ErrFormat, "example %d: id %d outside vocabulary of %d", i, id, len(v))
				}
			}
		}
	}
	return nil
}
