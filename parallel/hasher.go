package parallel

import "crypto/sha256"
import "encoding/binary"
import "sync"

// Hasher fingerprints results that are produced out of order. Each slot is
// written exactly once; Sum hashes the slots in index order.
type Hasher struct {
	mut   sync.Mutex
	slots [][32]byte
	set   []bool
}

// NewHasher creates a hasher with n slots
func NewHasher(n int) *Hasher {
	return &Hasher{
		slots: make([][32]byte, n),
		set:   make([]bool, n),
	}
}

// MustPutInts stores the digest of the ids in slot n. Writing a slot twice panics.
func (h *Hasher) MustPutInts(n int, ids []int) {
	var buf = make([]byte, 8*len(ids))
	for i, v := range ids {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
	}
	var sum = sha256.Sum256(buf)

	h.mut.Lock()
	defer h.mut.Unlock()
	if h.set[n] {
		panic("duplicate write")
	}
	h.slots[n] = sum
	h.set[n] = true
}

// Sum returns the ordered fingerprint of all slots. Unwritten slots hash as zero.
func (h *Hasher) Sum() (ret [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()
	var sha = sha256.New()
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(h.slots)))
	sha.Write(length[:])
	for i := range h.slots {
		sha.Write(h.slots[i][:])
	}
	copy(ret[:], sha.Sum(nil))
	return
}

// Fingerprint hashes an ordered list of id sequences
func Fingerprint(seqs [][]int) [32]byte {
	var h = NewHasher(len(seqs))
	for i, s := range seqs {
		h.MustPutInts(i, s)
	}
	return h.Sum()
}
