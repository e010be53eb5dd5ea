// Package mortar builds the integration mesh between a secondary and a
// primary boundary and serves per quadrature point data to the contact
// accumulators: physical points on both sides, interpolation weights, test
// function values and the nodal frames the gap is projected on.
package mortar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
)

// NodalFrame is the normal and tangent directions at one secondary node. In
// 2D only Tangents[0] is used.
type NodalFrame struct {
	Normal   r3.Vec
	Tangents [2]r3.Vec
}

// FrameFromNormal completes a unit normal to a right handed frame
func FrameFromNormal(n r3.Vec, dim int) (f NodalFrame) {
	f.Normal = r3.Unit(n)
	if dim == 2 {
		f.Tangents[0] = r3.Vec{X: -f.Normal.Y, Y: f.Normal.X}
		return
	}
	// cross with the axis least aligned with n
	axis := r3.Vec{X: 1}
	if ax, ay, az := math.Abs(f.Normal.X), math.Abs(f.Normal.Y), math.Abs(f.Normal.Z); ay <= ax && ay <= az {
		axis = r3.Vec{Y: 1}
	} else if az <= ax && az <= ay {
		axis = r3.Vec{Z: 1}
	}
	f.Tangents[0] = r3.Unit(r3.Cross(axis, f.Normal))
	f.Tangents[1] = r3.Cross(f.Normal, f.Tangents[0])
	return
}

// NodalFrames averages the outward unit normals of the sides adjacent to each
// node of the boundary and returns the frames keyed by node id.
func NodalFrames(m *mesh.Mesh, bid int) (frames map[int]NodalFrame) {
	sum := make(map[int]r3.Vec)
	for _, s := range m.BoundarySides(bid) {
		_, _, n := m.SideGeometry(s)
		for _, node := range m.SideNodes(s) {
			sum[node] = r3.Add(sum[node], n)
		}
	}
	frames = make(map[int]NodalFrame, len(sum))
	for node, n := range sum {
		frames[node] = FrameFromNormal(n, m.Dim)
	}
	return
}
