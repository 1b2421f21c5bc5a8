package batcher

// Pad is the id that marks padding in Arrays
const Pad = -1

// Arrays is the padded numeric form of a batch
type Arrays struct {
	Source    [][]int // source ids terminated by EOS, padded with Pad
	TargetIn  [][]int // BOS then target ids, padded with Pad
	TargetOut [][]int // target ids terminated by EOS, padded with Pad
}

// Words reports the non padding positions of a row
func Words(row []int) (n int) {
	for _, v := range row {
		if v != Pad {
			n++
		}
	}
	return
}

// PadBatch converts a batch to padded rows of equal width per side
func PadBatch(b Batch, eos, bos int) Arrays {
	var srcWidth, tgtWidth int
	for _, ex := range b {
		if len(ex.Source)+1 > srcWidth {
			srcWidth = len(ex.Source) + 1
		}
		if len(ex.Target)+1 > tgtWidth {
			tgtWidth = len(ex.Target) + 1
		}
	}
	var a = Arrays{
		Source:    make([][]int, len(b)),
		TargetIn:  make([][]int, len(b)),
		TargetOut: make([][]int, len(b)),
	}
	for i, ex := range b {
		a.Source[i] = row(srcWidth, ex.Source, -1, eos)
		a.TargetIn[i] = row(tgtWidth, ex.Target, bos, -1)
		a.TargetOut[i] = row(tgtWidth, ex.Target, -1, eos)
	}
	return a
}

// row lays out ids prefixed by head and terminated by tail; negative head or tail is omitted
func row(width int, ids []int, head, tail int) []int {
	var r = make([]int, 0, width)
	if head >= 0 {
		r = append(r, head)
	}
	r = append(r, ids...)
	if tail >= 0 {
		r = append(r, tail)
	}
	for len(r) < width {
		r = append(r, Pad)
	}
	return r
}

// SourceWords counts the unpadded source tokens of a batch
func SourceWords(b Batch) (n int) {
	for _, ex := range b {
		n += len(ex.Source)
	}
	return
}
