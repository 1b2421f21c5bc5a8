package batcher

import "math/rand"
import "reflect"
import "testing"

import "github.com/neurlang/seq2seq/datasets"

func randomCorpus(r *rand.Rand, n int) (c datasets.Corpus) {
	for i := 0; i < n; i++ {
		var ex datasets.Example
		for j := r.Intn(30); j >= 0; j-- {
			ex.Source = append(ex.Source, r.Intn(100))
		}
		for j := r.Intn(30); j >= 0; j-- {
			ex.Target = append(ex.Target, r.Intn(100))
		}
		c = append(c, ex)
	}
	return
}

func TestScenarioSingleBatch(t *testing.T) {
	c := datasets.Corpus{
		{Source: []int{2, 5, 3}, Target: []int{7, 5}},
		{Source: []int{9}, Target: []int{9, 9}},
	}
	s, err := Pool(c, 8, LengthKey, Tokens, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	batches := s.All()
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	if len(batches[0]) != 2 || Cost(batches[0], Tokens) != 8 {
		t.Errorf("unexpected batch %v", batches[0])
	}
}

func TestBudgetBound(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	c := randomCorpus(r, 2000)
	for _, budget := range []int{1, 7, 50, 300, 3000} {
		s, err := Pool(c, budget, LengthKey, Tokens, r)
		if err != nil {
			t.Fatal(err)
		}
		var total int
		for b, ok := s.Next(); ok; b, ok = s.Next() {
			if len(b) == 0 {
				t.Fatal("empty batch")
			}
			total += len(b)
			if Cost(b[:len(b)-1], Tokens) >= budget {
				t.Errorf("budget %d: batch reached the bound before its last example", budget)
			}
		}
		if total != len(c) {
			t.Errorf("budget %d: %d examples batched out of %d", budget, total, len(c))
		}
	}
}

func TestOversizedExample(t *testing.T) {
	c := datasets.Corpus{{Source: make([]int, 20), Target: make([]int, 20)}, {Source: []int{1}, Target: []int{1}}}
	batches := Chunk(c, 10, Tokens)
	if len(batches) != 2 || len(batches[0]) != 1 {
		t.Errorf("oversized example must form its own batch: %v", batches)
	}
}

func TestEmptyCorpus(t *testing.T) {
	s, err := Pool(nil, 100, LengthKey, Tokens, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Next(); ok {
		t.Error("empty corpus must yield no batches")
	}
	f, err := Fixed(datasets.Corpus{}, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.All()) != 0 {
		t.Error("empty corpus must yield no batches")
	}
}

func TestBadBudget(t *testing.T) {
	if _, err := Pool(nil, 0, nil, nil, nil); err != ErrBudget {
		t.Errorf("expected ErrBudget, got %v", err)
	}
	if _, err := Fixed(nil, -1, nil); err != ErrBudget {
		t.Errorf("expected ErrBudget, got %v", err)
	}
}

func TestFixedKeepsOrder(t *testing.T) {
	c := randomCorpus(rand.New(rand.NewSource(5)), 23)
	s, err := Fixed(c, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	var flat datasets.Corpus
	batches := s.All()
	for i, b := range batches {
		if i < len(batches)-1 && len(b) != 5 {
			t.Errorf("batch %d has %d examples", i, len(b))
		}
		flat = append(flat, b...)
	}
	if len(batches) != 5 || !reflect.DeepEqual(flat, c) {
		t.Error("fixed batching must keep corpus order")
	}
}

func TestFixedSorted(t *testing.T) {
	c := randomCorpus(rand.New(rand.NewSource(6)), 40)
	s, _ := Fixed(c, 8, LengthKey)
	var prev uint32
	for _, b := range s.All() {
		for _, ex := range b {
			if LengthKey(ex) < prev {
				t.Fatal("examples not sorted by length key within the pool")
			}
			prev = LengthKey(ex)
		}
	}
}

func TestPoolReshuffles(t *testing.T) {
	c := randomCorpus(rand.New(rand.NewSource(8)), 500)
	order := func(seed int64) (o []int) {
		s, _ := Pool(c, 100, LengthKey, Tokens, rand.New(rand.NewSource(seed)))
		for _, b := range s.All() {
			o = append(o, len(b[0].Source)*1000+len(b[0].Target))
		}
		return
	}
	if reflect.DeepEqual(order(1), order(2)) {
		t.Error("different shuffler seeds should give different batch orders")
	}
	if !reflect.DeepEqual(order(3), order(3)) {
		t.Error("the same seed must reproduce the batch order")
	}
}

func TestInterleaveKeys(t *testing.T) {
	if InterleaveKeys(0, 0) != 0 {
		t.Error("zero")
	}
	if InterleaveKeys(1, 0) != 2 || InterleaveKeys(0, 1) != 1 || InterleaveKeys(1, 1) != 3 {
		t.Error("low bits")
	}
	if InterleaveKeys(2, 0) != 8 {
		t.Errorf("got %d", InterleaveKeys(2, 0))
	}
	if InterleaveKeys(3, 3) >= InterleaveKeys(4, 0) {
		t.Error("higher bits must dominate")
	}
	if InterleaveKeys(70000, 1) != InterleaveKeys(0xffff, 1) || InterleaveKeys(0x10000, 0) <= InterleaveKeys(0xfffe, 0) {
		t.Error("long lengths must clamp, not wrap")
	}
	if InterleaveKeys(-3, 2) != InterleaveKeys(0, 2) {
		t.Error("negative lengths clamp to zero")
	}
}

func TestPadBatch(t *testing.T) {
	b := Batch{
		{Source: []int{5, 6, 7}, Target: []int{8}},
		{Source: []int{9}, Target: []int{10, 11}},
	}
	a := PadBatch(b, 0, 2)
	want := Arrays{
		Source:    [][]int{{5, 6, 7, 0}, {9, 0, Pad, Pad}},
		TargetIn:  [][]int{{2, 8, Pad}, {2, 10, 11}},
		TargetOut: [][]int{{8, 0, Pad}, {10, 11, 0}},
	}
	if !reflect.DeepEqual(a, want) {
		t.Errorf("got %v want %v", a, want)
	}
	if Words(a.TargetOut[0]) != 2 || SourceWords(b) != 4 {
		t.Error("word counts")
	}
}

func FuzzChunkBound(f *testing.F) {
	f.Add([]byte{3, 2, 1, 2}, uint8(8))
	f.Fuzz(func(t *testing.T, lengths []byte, budget uint8) {
		if budget == 0 {
			return
		}
		var c datasets.Corpus
		for i := 0; i+1 < len(lengths); i += 2 {
			c = append(c, datasets.Example{Source: make([]int, lengths[i]%40), Target: make([]int, lengths[i+1]%40)})
		}
		var n int
		for _, b := range Chunk(c, int(budget), Tokens) {
			n += len(b)
			if Cost(b[:len(b)-1], Tokens) >= int(budget) {
				t.Fatal("more than one overflowing example")
			}
		}
		if n != len(c) {
			t.Fatal("examples lost")
		}
	})
}

func BenchmarkPool(b *testing.B) {
	c := randomCorpus(rand.New(rand.NewSource(1)), 10000)
	r := rand.New(rand.NewSource(2))
	for i := 0; i < b.N; i++ {
		s, _ := Pool(c, 3000, LengthKey, Tokens, r)
		s.All()
	}
}
