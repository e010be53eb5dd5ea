package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Test packed int for edge labeling
		en := NewEdgeKey([2]int{1, 0})
		assert.Equal(t, EdgeKey(1<<32), en)
		assert.Equal(t, [2]int{0, 1}, en.Vertices(false))

		en = NewEdgeKey([2]int{100, 1})
		assert.Equal(t, EdgeKey(100*(1<<32)+1), en)
		assert.Equal(t, [2]int{1, 100}, en.Vertices(false))
		assert.Equal(t, [2]int{100, 1}, en.Vertices(true))

		en = NewEdgeKey([2]int{1<<32 - 1, 1<<32 - 1})
		assert.Equal(t, EdgeKey(1<<64-1), en)
		assert.Equal(t, [2]int{1<<32 - 1, 1<<32 - 1}, en.Vertices(false))
	}
	{ // Name lookups ignore case and whitespace
		cm, ok := LookupName(ContactModelNameMap, " Coulomb ")
		assert.True(t, ok)
		assert.Equal(t, Coulomb, cm)
		f, ok := LookupName(FormulationNameMap, "AL")
		assert.True(t, ok)
		assert.Equal(t, AugmentedLagrange, f)
		_, ok = LookupName(NCPNameMap, "max")
		assert.False(t, ok)
		assert.Equal(t, "fischer_burmeister", NCPFischerBurmeister.String())
		assert.Equal(t, "RZ", Axisymmetric.String())
	}
	{ // Dense dof indexing puts elements after nodes
		di := DofIndexer{NumNodes: 10, NumElems: 4}
		assert.Equal(t, 14, di.Len())
		assert.Equal(t, 3, di.Index(NewNodeDof(3, 1)))
		assert.Equal(t, 12, di.Index(NewElemDof(2, 0)))
		kind, id := di.KindAndID(12)
		assert.Equal(t, ElemDof, kind)
		assert.Equal(t, 2, id)
		assert.Equal(t, "Elem[2]@0", NewElemDof(2, 0).String())
	}
}
