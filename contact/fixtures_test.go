package contact

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

const (
	primaryTop      = 2
	secondaryBottom = 10
	// bottom row of the upper block
	leftNode, midNode, rightNode = 8, 9, 10
)

// stacked returns a 3 element block under a 2 element block separated by gap
func stacked(gap float64) (m *mesh.Mesh) {
	m = mesh.NewQuadMesh(3, 1, 0, 0, 1, 0.5)
	m.Append(mesh.NewQuadMesh(2, 1, 0, 0.5+gap, 1, 1+gap), 10)
	return
}

// upper reports whether node belongs to the upper block
func upper(node int) bool { return node >= 8 }

// testDofs numbers displacements node-major and puts the multipliers of the
// secondary nodes after them
type testDofs struct {
	dim, numNodes int
	lm            map[int]int
}

func newTestDofs(m *mesh.Mesh, secondary []types.DofObject) (td *testDofs) {
	td = &testDofs{dim: m.Dim, numNodes: m.NumVertices, lm: make(map[int]int)}
	next := td.dim * td.numNodes
	for _, d := range secondary {
		td.lm[d.ID] = next
		next += td.dim
	}
	return
}

func (td *testDofs) Len() int { return td.dim * (td.numNodes + len(td.lm)) }

func (td *testDofs) Displacement(node, comp int) int { return node*td.dim + comp }

func (td *testDofs) Multiplier(d types.DofObject, which int) int {
	base, ok := td.lm[d.ID]
	if !ok || d.Kind != types.NodeDof || which >= td.dim {
		return -1
	}
	return base + which
}

// uniformField moves every upper node by du with velocity dv
func uniformField[T ad.Number[T]](m *mesh.Mesh, td *testDofs, du, dv r3.Vec) *NodalField[T] {
	f := &NodalField[T]{
		Ref:            m,
		Dofs:           td,
		U:              make([]r3.Vec, m.NumVertices),
		VelocityOffset: make([]r3.Vec, m.NumVertices),
	}
	for n := range f.U {
		if upper(n) {
			f.U[n], f.VelocityOffset[n] = du, dv
		}
	}
	return f
}

type fixture struct {
	mesh *mesh.Mesh
	sm   *mortar.SegmentMesh
	q    *mortar.Quadrature
	dofs *testDofs
}

func newFixture(t *testing.T, gap float64) (fx *fixture) {
	fx = &fixture{mesh: stacked(gap)}
	var err error
	fx.sm, err = mortar.Generate(fx.mesh, secondaryBottom, primaryTop, true)
	require.NoError(t, err)
	fx.q = mortar.NewQuadrature(2, mortar.StandardBasis, types.Cartesian)
	fx.dofs = newTestDofs(fx.mesh, fx.sm.SecondaryDofs())
	return
}

func (fx *fixture) node(id int) types.DofObject { return fx.mesh.NodeDof(id) }

// fakeGaps serves fixed gap data to the enforcement policies
type fakeGaps[T ad.Number[T]] struct {
	dim  int
	data map[types.DofObject]GapData[T]
	old  map[types.DofObject]float64
}

func newFakeGaps[T ad.Number[T]](dim int) *fakeGaps[T] {
	return &fakeGaps[T]{
		dim:  dim,
		data: make(map[types.DofObject]GapData[T]),
		old:  make(map[types.DofObject]float64),
	}
}

func (fg *fakeGaps[T]) set(d types.DofObject, gap, norm float64, vel ...float64) {
	gd := GapData[T]{Gap: WeightedGap[T]{Value: ad.Const[T](gap), Normalization: norm}}
	for k, v := range vel {
		gd.Velocity[k] = ad.Const[T](v)
	}
	fg.data[d] = gd
}

func (fg *fakeGaps[T]) Dofs() (dofs []types.DofObject) {
	for d := range fg.data {
		dofs = append(dofs, d)
	}
	return
}

func (fg *fakeGaps[T]) Data(d types.DofObject) (gd GapData[T], ok bool) {
	gd, ok = fg.data[d]
	return
}

func (fg *fakeGaps[T]) Gap(d types.DofObject) (WeightedGap[T], bool) {
	gd, ok := fg.data[d]
	return gd.Gap, ok
}

func (fg *fakeGaps[T]) OldGap(d types.DofObject) (g float64, ok bool) {
	g, ok = fg.old[d]
	return
}

func (fg *fakeGaps[T]) Frame(types.DofObject) mortar.NodalFrame {
	return mortar.FrameFromNormal(r3.Vec{Y: -1}, fg.dim)
}

func (fg *fakeGaps[T]) Dim() int { return fg.dim }
