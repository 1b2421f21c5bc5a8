package main

import "bufio"
import "flag"
import "fmt"
import "os"
import "runtime"

import "github.com/pkg/errors"

import "github.com/neurlang/seq2seq/checkpoint"
import "github.com/neurlang/seq2seq/datasets"
import "github.com/neurlang/seq2seq/decode"
import "github.com/neurlang/seq2seq/evaluator"
import "github.com/neurlang/seq2seq/net/lexical"

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// readLines tokenizes one source sentence per line
func readLines(name string, v datasets.Vocabulary) (sources [][]int, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open text")
	}
	defer f.Close()
	var index = v.Index()
	var s = bufio.NewScanner(f)
	for n := 1; s.Scan(); n++ {
		ids, err := datasets.Tokenize(index, s.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, n)
		}
		sources = append(sources, ids)
	}
	return sources, s.Err()
}

func main() {
	dstmodel := flag.String("dstmodel", "", "model .json.lzw file")
	vocabfile := flag.String("vocab", "", "vocabulary .json file")
	corpusfile := flag.String("corpus", "", "parallel corpus .json file, translated and scored by BLEU")
	textfile := flag.String("text", "", "tokenized source sentences, one per line")
	out := flag.String("out", "", "hypotheses output, stdout when empty")
	beam := flag.Int("beam_size", 5, "beam width, 1 is greedy")
	maxlen := flag.Int("max_decode_len", 50, "longest generated translation")
	batch := flag.Int("batchsize", 15, "sentences per generation batch")
	eos := flag.Int("eos", 0, "end of sentence id")
	bos := flag.Int("bos", 2, "beginning of sentence id")
	flag.Parse()

	if *dstmodel == "" || *vocabfile == "" || (*corpusfile == "") == (*textfile == "") {
		flag.Usage()
		os.Exit(2)
	}
	vocab, err := datasets.LoadVocabulary(*vocabfile)
	if err != nil {
		fatal(err)
	}
	var model lexical.Model
	file := &checkpoint.File{Path: *dstmodel}
	meta, err := file.Load(&model)
	if err != nil {
		fatal(err)
	}
	model.Eval()
	fmt.Fprintf(os.Stderr, "loaded run %s epoch %d step %d (BLEU %.2f)\n", meta.RunID, meta.Epoch, meta.Step, meta.Score)

	var hyps [][]int
	if *corpusfile != "" {
		corpus, err := datasets.LoadCorpus(*corpusfile)
		if err != nil {
			fatal(err)
		}
		if err := vocab.Check(corpus); err != nil {
			fatal(err)
		}
		ev := &evaluator.Evaluator{Batch: *batch, MaxLength: *maxlen, Beam: *beam, EOS: *eos, BOS: *bos, Threads: runtime.NumCPU()}
		ev.SetLogger(os.Stderr)
		r, err := ev.CalculateQuality(&model, corpus, "BLEU")
		if err != nil {
			fatal(err)
		}
		hyps = r.Hypotheses
	} else {
		sources, err := readLines(*textfile, vocab)
		if err != nil {
			fatal(err)
		}
		gen := decode.Generator{Beam: *beam, MaxLength: *maxlen, EOS: *eos, BOS: *bos, Threads: runtime.NumCPU()}
		if hyps, err = gen.GenerateAll(&model, sources); err != nil {
			fatal(err)
		}
	}

	if *out != "" {
		if err := vocab.WriteHypotheses(*out, hyps); err != nil {
			fatal(err)
		}
		return
	}
	for _, h := range hyps {
		fmt.Println(vocab.Render(h))
	}
}
