package mortar

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/types"
)

// Basis is the Lagrange multiplier test space on the secondary side
type Basis uint8

const (
	StandardBasis Basis = iota // first order Lagrange on the secondary nodes
	DualBasis                  // biorthogonal to StandardBasis
	ConstantBasis              // one value per secondary element
)

var BasisNameMap = map[string]Basis{
	"standard": StandardBasis,
	"lagrange": StandardBasis,
	"dual":     DualBasis,
	"constant": ConstantBasis,
	"monomial": ConstantBasis,
}

func (b Basis) String() string {
	return [...]string{"Standard", "Dual", "Constant"}[b]
}

// QPoint is everything the accumulators need at one mortar quadrature point.
// Weight already contains the segment Jacobian and the coordinate factor.
type QPoint struct {
	Xi, Weight         float64
	Secondary, Primary r3.Vec
	Normal             r3.Vec
	SecondaryPhi       [2]float64
	PrimaryPhi         [2]float64
	HasPrimary         bool
	Test               []float64
}

// Quadrature evaluates Gauss-Legendre points on mortar segments
type Quadrature struct {
	Order int
	Basis Basis
	Coord types.CoordSystem
	x, w  []float64
}

func NewQuadrature(order int, basis Basis, coord types.CoordSystem) (q *Quadrature) {
	if order < 1 {
		order = 2
	}
	q = &Quadrature{
		Order: order,
		Basis: basis,
		Coord: coord,
		x:     make([]float64, order),
		w:     make([]float64, order),
	}
	quad.Legendre{}.FixedLocations(q.x, q.w, -1, 1)
	return
}

// CoordFactor is the volume scale of a point for the coordinate system. For
// RZ the radius is x, for spherical the radius is also x.
func CoordFactor(cs types.CoordSystem, p r3.Vec) float64 {
	switch cs {
	case types.Axisymmetric:
		return 2 * math.Pi * p.X
	case types.Spherical:
		return 4 * math.Pi * p.X * p.X
	default:
		return 1
	}
}

// TestDofs lists the dofs whose test functions are non zero on seg, in the
// order of QPoint.Test.
func (q *Quadrature) TestDofs(sm *SegmentMesh, seg Segment) []types.DofObject {
	if q.Basis == ConstantBasis {
		return []types.DofObject{sm.Geometry.ElemDof(seg.Secondary.Elem)}
	}
	return []types.DofObject{
		sm.Geometry.NodeDof(seg.SecondaryNodes[0]),
		sm.Geometry.NodeDof(seg.SecondaryNodes[1]),
	}
}

func (q *Quadrature) test(xi float64) []float64 {
	switch q.Basis {
	case DualBasis:
		return []float64{0.5 * (1 - 3*xi), 0.5 * (1 + 3*xi)}
	case ConstantBasis:
		return []float64{1}
	default:
		return []float64{0.5 * (1 - xi), 0.5 * (1 + xi)}
	}
}

// Points returns the quadrature points of one segment
func (q *Quadrature) Points(sm *SegmentMesh, seg Segment) (qps []QPoint) {
	var (
		g       = sm.Geometry
		a, b    = seg.Xi[0], seg.Xi[1]
		halfLen = 0.5 * r3.Norm(r3.Sub(g.Vertices[seg.SecondaryNodes[1]], g.Vertices[seg.SecondaryNodes[0]]))
	)
	qps = make([]QPoint, len(q.x))
	for i := range q.x {
		xi := a + 0.5*(b-a)*(q.x[i]+1)
		x, n := sm.secondaryPoint(seg.SecondaryNodes, xi)
		qp := QPoint{
			Xi:           xi,
			Weight:       q.w[i] * 0.5 * (b - a) * halfLen * CoordFactor(q.Coord, x),
			Secondary:    x,
			Normal:       n,
			SecondaryPhi: [2]float64{0.5 * (1 - xi), 0.5 * (1 + xi)},
			Test:         q.test(xi),
		}
		if seg.HasPrimary() {
			p0, p1 := g.Vertices[seg.PrimaryNodes[0]], g.Vertices[seg.PrimaryNodes[1]]
			if _, eta, ok := intersect(x, n, p0, p1); ok {
				eta = math.Max(0, math.Min(1, eta))
				qp.HasPrimary = true
				qp.Primary = r3.Add(p0, r3.Scale(eta, r3.Sub(p1, p0)))
				qp.PrimaryPhi = [2]float64{1 - eta, eta}
			}
		}
		qps[i] = qp
	}
	return
}
