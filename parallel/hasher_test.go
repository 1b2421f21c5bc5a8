package parallel

import "errors"
import "sync/atomic"
import "testing"

func TestHasherOrder(t *testing.T) {
	seqs := [][]int{{1, 2}, {3}, {}}
	h := NewHasher(len(seqs))
	ForEach(len(seqs), 3, func(i int) {
		h.MustPutInts(i, seqs[i])
	})
	if h.Sum() != Fingerprint(seqs) {
		t.Error("parallel and sequential fingerprints differ")
	}
	if Fingerprint([][]int{{3}, {1, 2}, {}}) == Fingerprint(seqs) {
		t.Error("fingerprint must depend on order")
	}
	if Fingerprint([][]int{{1}, {2}}) == Fingerprint([][]int{{1, 2}}) {
		t.Error("fingerprint must depend on sequence boundaries")
	}
}

func TestHasherDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate write")
		}
	}()
	h := NewHasher(1)
	h.MustPutInts(0, nil)
	h.MustPutInts(0, nil)
}

func TestForEach(t *testing.T) {
	for _, limit := range []int{0, 1, 4, 100} {
		var out = make([]int, 50)
		ForEach(len(out), limit, func(i int) {
			out[i] = i * i
		})
		for i, v := range out {
			if v != i*i {
				t.Fatalf("limit %d: index %d not processed", limit, i)
			}
		}
	}
}

func TestForEachErr(t *testing.T) {
	var calls int64
	boom := errors.New("boom")
	err := ForEachErr(1000, 4, func(i int) error {
		atomic.AddInt64(&calls, 1)
		if i == 10 {
			return boom
		}
		return nil
	})
	if err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if calls == 1000 {
		t.Log("all bodies ran before the failure was observed")
	}
	if ForEachErr(0, 4, func(int) error { return boom }) != nil {
		t.Error("empty loop must not fail")
	}
}
