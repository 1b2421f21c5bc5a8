package trainer

import "github.com/neurlang/seq2seq/checkpoint"

// Resume loads the checkpoint file into the model when resume is set and the file exists.
// The policy then only persists candidates scoring at least as well as the loaded one.
func (t *Trainer) Resume(resume bool, file *checkpoint.File) (bool, error) {
	meta, ok, err := checkpoint.Resume(t.Model, resume, file.Path)
	if err != nil || !ok {
		return false, err
	}
	t.Policy.Resumed(meta)
	t.printf("resumed %s from run %s epoch %d step %d (BLEU %.2f)", file.Path, meta.RunID, meta.Epoch, meta.Step, meta.Score)
	return true, nil
}
