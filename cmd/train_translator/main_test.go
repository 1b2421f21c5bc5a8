package main

import "os"
import "path/filepath"
import "testing"

func TestParseFlagsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("epoch: 3\nbeam_size: 1\nunit: 64\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, logfile, err := parse([]string{"-epoch", "7", "-config", path, "-logfile", "x.log"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Epoch != 7 || c.BeamSize != 1 || c.Unit != 64 || c.WBatchSize != 3000 {
		t.Fatalf("config %+v", c)
	}
	if logfile != "x.log" {
		t.Fatalf("logfile %q", logfile)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, _, err := parse([]string{"-eval_every", "0"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOutputDirs(t *testing.T) {
	dir := t.TempDir()
	c, _, err := parse([]string{
		"-dev_hyp", filepath.Join(dir, "results", "valid.out"),
		"-test_hyp", filepath.Join(dir, "other", "test.out"),
		"-model_file", filepath.Join(dir, "models", "best.json.lzw"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := outputDirs(c); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"results", "other", "models"} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err != nil || !fi.IsDir() {
			t.Fatalf("%s: %v", sub, err)
		}
	}
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, nil, 0644)
	c.DevHyp = filepath.Join(blocker, "valid.out")
	if err := outputDirs(c); err == nil {
		t.Fatal("expected error for a directory below a file")
	}
}
