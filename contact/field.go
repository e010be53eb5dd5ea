// Package contact evaluates mortar contact on top of the segment mesh: the
// weighted gap and velocity accumulator, the complementarity and penalty
// enforcement of normal and frictional contact, and the cohesive zone law.
// Algorithms are written once over ad.Number; ad.Real runs them for values
// only and ad.Dual also produces the Jacobian.
package contact

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

// DofMap places the unknowns of the contact problem in the global system
type DofMap interface {
	// Displacement is the global index of component comp of node's displacement
	Displacement(node, comp int) int
	// Multiplier is the global index of the normal (which=0) or tangential
	// (which=1,2) Lagrange multiplier of d, or -1 when d carries none
	Multiplier(d types.DofObject, which int) int
}

// Field is the primal displacement field with its time derivative
type Field[T ad.Number[T]] interface {
	Displacement(node int) ad.Vec[T]
	Velocity(node int) ad.Vec[T]
	Reference() *mesh.Mesh
}

// NodalField seeds nodal values as independent variables. The velocity is
// affine in the displacement, v = VelocityScale*(u - UOld) + VelocityOffset,
// which covers backward Euler and Newmark updates.
type NodalField[T ad.Number[T]] struct {
	Ref            *mesh.Mesh
	Dofs           DofMap
	U, UOld        []r3.Vec
	VelocityScale  float64
	VelocityOffset []r3.Vec
}

func (f *NodalField[T]) Reference() *mesh.Mesh { return f.Ref }

func (f *NodalField[T]) Displacement(node int) (u ad.Vec[T]) {
	val := [3]float64{f.U[node].X, f.U[node].Y, f.U[node].Z}
	for c := 0; c < f.Ref.Dim; c++ {
		u[c] = ad.Variable[T](val[c], f.Dofs.Displacement(node, c))
	}
	if f.Ref.Dim < 3 {
		u[2] = ad.Const[T](val[2])
	}
	return
}

func (f *NodalField[T]) Velocity(node int) (v ad.Vec[T]) {
	u := f.Displacement(node)
	var old r3.Vec
	if f.UOld != nil {
		old = f.UOld[node]
	}
	v = u.Sub(ad.VecFromR3[T](old)).Scale(f.VelocityScale)
	if f.VelocityOffset != nil {
		v = v.Add(ad.VecFromR3[T](f.VelocityOffset[node]))
	}
	return
}

// PointData is the interpolated state on both sides of one quadrature point
type PointData[T ad.Number[T]] struct {
	Secondary, Primary       ad.Vec[T]
	SecondaryVel, PrimaryVel ad.Vec[T]
	Weight                   float64
	HasPrimary               bool
	Test                     []float64
}

// Interpolate evaluates the physical positions and velocities at qp. The
// positions are the reference coordinates plus the displacement so their
// derivatives run through the nodal unknowns.
func Interpolate[T ad.Number[T]](f Field[T], seg mortar.Segment, qp mortar.QPoint,
	wantVelocity bool) (pd PointData[T]) {
	ref := f.Reference()
	side := func(nodes [2]int, phi [2]float64) (x, v ad.Vec[T]) {
		for i, n := range nodes {
			xi := ad.VecFromR3[T](ref.Vertices[n]).Add(f.Displacement(n))
			x = x.Add(xi.Scale(phi[i]))
			if wantVelocity {
				v = v.Add(f.Velocity(n).Scale(phi[i]))
			}
		}
		return
	}
	pd.Weight, pd.Test, pd.HasPrimary = qp.Weight, qp.Test, qp.HasPrimary
	pd.Secondary, pd.SecondaryVel = side(seg.SecondaryNodes, qp.SecondaryPhi)
	if qp.HasPrimary {
		pd.Primary, pd.PrimaryVel = side(seg.PrimaryNodes, qp.PrimaryPhi)
	}
	return
}
