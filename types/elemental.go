package types

import (
	"fmt"
	"math"
)

// EdgeKey identifies an undirected element edge: the smaller vertex id sits
// in the low 32 bits and the larger in the high 32 bits, so both traversal
// directions of a shared edge produce the same key and keys sort by their
// larger vertex first.
type EdgeKey uint64

func NewEdgeKey(verts [2]int) EdgeKey {
	lo, hi := verts[0], verts[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 || hi > math.MaxUint32 {
		panic(fmt.Errorf("edge vertices %d and %d do not fit a packed edge key", verts[0], verts[1]))
	}
	return EdgeKey(uint64(hi)<<32 | uint64(lo))
}

// Vertices unpacks the key in ascending order, descending with rev
func (ek EdgeKey) Vertices(rev bool) (verts [2]int) {
	verts = [2]int{int(ek & math.MaxUint32), int(ek >> 32)}
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}
