package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// NewQuadMesh builds a structured nx by ny quadrilateral mesh of the
// rectangle [x0,x1]x[y0,y1]. Boundaries are bottom=0, right=1, top=2, left=3
// which matches the local side number of the quads on each boundary.
func NewQuadMesh(nx, ny int, x0, y0, x1, y1 float64) (m *Mesh) {
	m = NewMesh(2)
	var (
		dx = (x1 - x0) / float64(nx)
		dy = (y1 - y0) / float64(ny)
	)
	node := func(i, j int) int { return i + j*(nx+1) }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.AddVertex(r3.Vec{X: x0 + float64(i)*dx, Y: y0 + float64(j)*dy})
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.AddElement(Quad, []int{node(i, j), node(i+1, j), node(i+1, j+1), node(i, j+1)})
		}
	}
	m.BuildConnectivity()
	m.AssignBoundaries(AxisBoundary(
		r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}))
	for bid, name := range []string{"bottom", "right", "top", "left"} {
		m.BoundaryNames[bid] = name
	}
	return
}

// NewHexMesh builds a structured hexahedral mesh of the box [lo, hi].
// Boundaries are back=0 (z min), bottom=1 (y min), right=2 (x max),
// top=3 (y max), left=4 (x min), front=5 (z max).
func NewHexMesh(nx, ny, nz int, lo, hi r3.Vec) (m *Mesh) {
	m = NewMesh(3)
	var (
		d = r3.Vec{
			X: (hi.X - lo.X) / float64(nx),
			Y: (hi.Y - lo.Y) / float64(ny),
			Z: (hi.Z - lo.Z) / float64(nz),
		}
	)
	node := func(i, j, k int) int { return i + (nx+1)*(j+(ny+1)*k) }
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				m.AddVertex(r3.Vec{
					X: lo.X + float64(i)*d.X,
					Y: lo.Y + float64(j)*d.Y,
					Z: lo.Z + float64(k)*d.Z,
				})
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				m.AddElement(Hex, []int{
					node(i, j, k), node(i+1, j, k), node(i+1, j+1, k), node(i, j+1, k),
					node(i, j, k+1), node(i+1, j, k+1), node(i+1, j+1, k+1), node(i, j+1, k+1),
				})
			}
		}
	}
	m.BuildConnectivity()
	m.AssignBoundaries(AxisBoundary(
		r3.Vec{Z: -1}, r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Z: 1}))
	for bid, name := range []string{"back", "bottom", "right", "top", "left", "front"} {
		m.BoundaryNames[bid] = name
	}
	return
}

// Append merges other into the receiver without stitching coincident nodes.
// Boundary ids of other are shifted by boundaryOffset.
func (m *Mesh) Append(other *Mesh, boundaryOffset int) {
	var (
		nodeOffset = m.NumVertices
		elemOffset = m.NumElements
	)
	for _, v := range other.Vertices {
		m.AddVertex(v)
	}
	for k, verts := range other.Elements {
		shifted := make([]int, len(verts))
		for i, v := range verts {
			shifted[i] = v + nodeOffset
		}
		m.AddElement(other.ElementTypes[k], shifted)
	}
	m.BuildConnectivity()
	for bid, sides := range other.SideSets {
		for _, s := range sides {
			m.AddSide(bid+boundaryOffset, Side{s.Elem + elemOffset, s.LocalSide})
		}
	}
	for bid, name := range other.BoundaryNames {
		m.BoundaryNames[bid+boundaryOffset] = name
	}
}
