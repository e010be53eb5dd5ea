package ContactPatch

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/types"
)

// Foundation stands in for the bulk of the two blocks. Every node hangs on a
// spring of stiffness K from its prescribed position, zero for the lower
// block and the applied load for the upper block, and the two nodes of each
// element edge are coupled by a spring of stiffness KEdge. It is linear, so
// the Jacobian is built once.
type Foundation struct {
	K, KEdge float64
	Edges    []types.EdgeKey
	upper    []bool
	layout   *Layout
	jac      *mat.Dense
}

func NewFoundation(m *mesh.Mesh, firstUpper int, k, kEdge float64, l *Layout) (f *Foundation) {
	f = &Foundation{
		K:      k,
		KEdge:  kEdge,
		upper:  make([]bool, m.NumVertices),
		layout: l,
	}
	for n := firstUpper; n < m.NumVertices; n++ {
		f.upper[n] = true
	}
	edges := make(map[types.EdgeKey]bool)
	for _, verts := range m.Elements {
		for i := range verts {
			edges[types.NewEdgeKey([2]int{verts[i], verts[(i+1)%len(verts)]})] = true
		}
	}
	for ek := range edges {
		f.Edges = append(f.Edges, ek)
	}
	sort.Slice(f.Edges, func(i, j int) bool { return f.Edges[i] < f.Edges[j] })
	f.assembleJacobian()
	return
}

// Target is the prescribed position offset of node under load
func (f *Foundation) Target(node int, load r3.Vec) r3.Vec {
	if f.upper[node] {
		return load
	}
	return r3.Vec{}
}

func (f *Foundation) displacement(x []float64, node int) (u [2]float64) {
	for c := 0; c < f.layout.Dim; c++ {
		u[c] = x[f.layout.Displacement(node, c)]
	}
	return
}

// AddResidual adds the spring forces K(u - target) and the edge forces
func (f *Foundation) AddResidual(x []float64, load r3.Vec, r []float64) {
	l := f.layout
	for n := 0; n < l.NumNodes; n++ {
		u, t := f.displacement(x, n), f.Target(n, load)
		r[l.Displacement(n, 0)] += f.K * (u[0] - t.X)
		r[l.Displacement(n, 1)] += f.K * (u[1] - t.Y)
	}
	for _, ek := range f.Edges {
		v := ek.Vertices(false)
		ua, ub := f.displacement(x, v[0]), f.displacement(x, v[1])
		for c := 0; c < l.Dim; c++ {
			df := f.KEdge * (ua[c] - ub[c])
			r[l.Displacement(v[0], c)] += df
			r[l.Displacement(v[1], c)] -= df
		}
	}
}

func (f *Foundation) assembleJacobian() {
	var (
		l = f.layout
		n = l.Len()
	)
	f.jac = mat.NewDense(n, n, nil)
	for node := 0; node < l.NumNodes; node++ {
		for c := 0; c < l.Dim; c++ {
			i := l.Displacement(node, c)
			f.jac.Set(i, i, f.K)
		}
	}
	for _, ek := range f.Edges {
		v := ek.Vertices(false)
		for c := 0; c < l.Dim; c++ {
			a, b := l.Displacement(v[0], c), l.Displacement(v[1], c)
			f.jac.Set(a, a, f.jac.At(a, a)+f.KEdge)
			f.jac.Set(b, b, f.jac.At(b, b)+f.KEdge)
			f.jac.Set(a, b, f.jac.At(a, b)-f.KEdge)
			f.jac.Set(b, a, f.jac.At(b, a)-f.KEdge)
		}
	}
}

// AddJacobian adds the constant foundation stiffness into J
func (f *Foundation) AddJacobian(J *mat.Dense) { J.Add(J, f.jac) }

// Reaction is the total force the foundation springs exert on the blocks.
// The interface forces are internal, so it vanishes at equilibrium.
func (f *Foundation) Reaction(x []float64, load r3.Vec) (sum r3.Vec) {
	for n := 0; n < f.layout.NumNodes; n++ {
		u, t := f.displacement(x, n), f.Target(n, load)
		sum.X += f.K * (u[0] - t.X)
		sum.Y += f.K * (u[1] - t.Y)
	}
	return
}
