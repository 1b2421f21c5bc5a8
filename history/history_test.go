package history

import "math"
import "path/filepath"
import "testing"

func open(t *testing.T) *Journal {
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestBest(t *testing.T) {
	j := open(t)
	if err := j.Start("r1", map[string]int{"epoch": 2}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := j.Best("r1"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	for i, s := range []float64{3.5, 12.4, 12.0} {
		if err := j.Evaluated("r1", Evaluation{Step: (i + 1) * 10, BLEU: s, Persisted: s != 12.0, Fingerprint: [32]byte{byte(i)}}); err != nil {
			t.Fatal(err)
		}
	}
	best, ok, err := j.Best("r1")
	if err != nil || !ok || best != 12.4 {
		t.Fatalf("best %v ok %v err %v", best, ok, err)
	}
	evals, err := j.Evaluations("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(evals) != 3 || evals[2].Persisted || evals[1].Fingerprint[0] != 1 || evals[2].Step != 30 {
		t.Fatalf("evaluations %+v", evals)
	}
}

func TestEpochNaN(t *testing.T) {
	j := open(t)
	j.Start("r", nil)
	if err := j.Finished("r", Epoch{Epoch: 0, TrainPPL: 7.4, ValidPPL: math.NaN()}); err != nil {
		t.Fatal(err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j.Start("r", nil)
	j.Evaluated("r", Evaluation{BLEU: 1})
	j.Close()
	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if best, ok, _ := j.Best("r"); !ok || best != 1 {
		t.Fatalf("best %v ok %v", best, ok)
	}
}
