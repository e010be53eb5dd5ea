package contact

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

// TractionSource gives the interface traction carried by a test dof: the
// normal pressure (positive in compression) and the tangential components.
type TractionSource[T ad.Number[T]] interface {
	Traction(d types.DofObject) (normal T, tangential [2]T, ok bool)
}

// AssembleForces integrates the interpolated traction against the
// displacement test functions of both sides over the segments of rank. The
// secondary side receives +traction, the primary side -traction, which for a
// positive pressure pushes the surfaces apart.
func AssembleForces[T ad.Number[T]](sm *mortar.SegmentMesh, q *mortar.Quadrature, rank int,
	src TractionSource[T], dm DofMap, sink Sink[T]) {
	dim := sm.Geometry.Dim
	for _, si := range sm.LocalSegments(rank) {
		seg := sm.Segments[si]
		var (
			dofs       = q.TestDofs(sm, seg)
			normals    = make([]T, len(dofs))
			tangential = make([][2]T, len(dofs))
			carried    bool
		)
		for i, d := range dofs {
			var ok bool
			if normals[i], tangential[i], ok = src.Traction(d); ok {
				carried = true
			}
		}
		if !carried {
			continue
		}
		for _, qp := range q.Points(sm, seg) {
			var (
				frame = mortar.FrameFromNormal(qp.Normal, dim)
				pn    = ad.Zero[T]()
				pt    [2]T
			)
			for i := range dofs {
				pn = pn.Add(normals[i].Scale(qp.Test[i]))
				for k := 0; k < dim-1; k++ {
					pt[k] = pt[k].Add(tangential[i][k].Scale(qp.Test[i]))
				}
			}
			traction := along(pn, frame.Normal)
			for k := 0; k < dim-1; k++ {
				traction = traction.Add(along(pt[k], frame.Tangents[k]))
			}
			scatter(traction, seg.SecondaryNodes, qp.SecondaryPhi, qp.Weight, dim, dm, sink)
			if qp.HasPrimary {
				scatter(traction, seg.PrimaryNodes, qp.PrimaryPhi, -qp.Weight, dim, dm, sink)
			}
		}
	}
}

func scatter[T ad.Number[T]](traction ad.Vec[T], nodes [2]int, phi [2]float64, w float64,
	dim int, dm DofMap, sink Sink[T]) {
	for a, node := range nodes {
		for c := 0; c < dim; c++ {
			sink.Add(dm.Displacement(node, c), traction[c].Scale(phi[a]*w))
		}
	}
}

// along is the vector s*dir
func along[T ad.Number[T]](s T, dir r3.Vec) ad.Vec[T] {
	return ad.Vec[T]{s.Scale(dir.X), s.Scale(dir.Y), s.Scale(dir.Z)}
}
