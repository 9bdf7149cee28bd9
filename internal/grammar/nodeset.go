package grammar

import (
	"encoding/binary"
	"math/bits"
)

// nodeSet is a set of NFA node indexes; a determinized grammar state is
// identified by the nodes it covers.
type nodeSet []uint64

func newNodeSet(size int) nodeSet {
	return make(nodeSet, (size+63)>>6)
}

// add inserts n and reports whether it was absent.
func (s nodeSet) add(n int) bool {
	word, mask := n>>6, uint64(1)<<(n&63)
	if s[word]&mask != 0 {
		return false
	}
	s[word] |= mask
	return true
}

func (s nodeSet) each(f func(int)) {
	for i, w := range s {
		for ; w != 0; w &= w - 1 {
			f(i<<6 | bits.TrailingZeros64(w))
		}
	}
}

// key is the identity of the set used to intern states.
func (s nodeSet) key() string {
	buf := make([]byte, 0, len(s)*8)
	for _, w := range s {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return string(buf)
}
