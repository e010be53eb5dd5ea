package ContactPatch

import (
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

// Layout numbers the global unknowns: the nodal displacements node-major,
// followed by PerDof Lagrange multipliers for every secondary test dof.
type Layout struct {
	Dim, NumNodes int
	PerDof        int
	TestDofs      []types.DofObject // in dense index order
	indexer       types.DofIndexer
	base          []int
	n             int
}

func NewLayout(sm *mortar.SegmentMesh, q *mortar.Quadrature, perDof int) (l *Layout) {
	m := sm.Geometry
	l = &Layout{
		Dim:      m.Dim,
		NumNodes: m.NumVertices,
		PerDof:   perDof,
		indexer:  m.Indexer(),
	}
	l.base = make([]int, l.indexer.Len())
	for i := range l.base {
		l.base[i] = -1
	}
	seen := make([]bool, l.indexer.Len())
	for _, seg := range sm.Segments {
		for _, d := range q.TestDofs(sm, seg) {
			seen[l.indexer.Index(d)] = true
		}
	}
	l.n = l.Dim * l.NumNodes
	for idx, ok := range seen {
		if !ok {
			continue
		}
		l.TestDofs = append(l.TestDofs, dofAt(m, l.indexer, idx))
		if perDof > 0 {
			l.base[idx] = l.n
			l.n += perDof
		}
	}
	return
}

func dofAt(m *mesh.Mesh, di types.DofIndexer, idx int) types.DofObject {
	kind, id := di.KindAndID(idx)
	if kind == types.ElemDof {
		return m.ElemDof(id)
	}
	return m.NodeDof(id)
}

// Len is the size of the global system
func (l *Layout) Len() int { return l.n }

func (l *Layout) Displacement(node, comp int) int { return node*l.Dim + comp }

func (l *Layout) Multiplier(d types.DofObject, which int) int {
	if which >= l.PerDof {
		return -1
	}
	b := l.base[l.indexer.Index(d)]
	if b < 0 {
		return -1
	}
	return b + which
}

// Owned filters the test dofs to those owned by rank
func (l *Layout) Owned(rank int) (dofs []types.DofObject) {
	for _, d := range l.TestDofs {
		if d.Owner == rank {
			dofs = append(dofs, d)
		}
	}
	return
}
