package datasets

import "bufio"
import "os"
import "path/filepath"
import "strconv"
import "strings"

import "github.com/pkg/errors"

// Vocabulary maps token ids to token strings
type Vocabulary []string

// Token returns the string of id, or <id> for ids outside the vocabulary
func (v Vocabulary) Token(id int) string {
	if id < 0 || id >= len(v) {
		return "<" + strconv.Itoa(id) + ">"
	}
	return v[id]
}

// Render joins the tokens of ids with single spaces
func (v Vocabulary) Render(ids []int) string {
	var words = make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Token(id)
	}
	return strings.Join(words, " ")
}

// Index builds the reverse lookup. When a token string repeats, the lowest id wins.
func (v Vocabulary) Index() map[string]int {
	var m = make(map[string]int, len(v))
	for i := len(v) - 1; i >= 0; i-- {
		m[v[i]] = i
	}
	return m
}

// Tokenize maps a rendered line back to ids using index. Unknown tokens are reported.
// Tokens are split on white space, which ReadVocabulary keeps out of tokens.
func Tokenize(index map[string]int, line string) ([]int, error) {
	var fields = strings.Fields(line)
	var ids = make([]int, 0, len(fields))
	for _, f := range fields {
		id, ok := index[f]
		if !ok {
			return nil, errors.Errorf("unknown token %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MakeOutputDir creates the parent directory of an output file
func MakeOutputDir(name string) error {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "output dir of %s", name)
		}
	}
	return nil
}

// WriteHypotheses writes one rendered hypothesis per line to the named file
func (v Vocabulary) WriteHypotheses(name string, hypotheses [][]int) error {
	if err := MakeOutputDir(name); err != nil {
		return errors.Wrap(err, "write hypotheses")
	}
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "write hypotheses")
	}
	w := bufio.NewWriter(file)
	for _, h := range hypotheses {
		w.WriteString(v.Render(h))
		w.WriteByte('\n')
	}
	err = w.Flush()
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "write hypotheses")
}
