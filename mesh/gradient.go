package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

// reference derivatives (d/dxi, d/deta) of the nodal shape functions at the
// element centroid
var centroidDerivatives = map[ElementType][][2]float64{
	Triangle: {{-1, -1}, {1, 0}, {0, 1}},
	Quad:     {{-0.25, -0.25}, {0.25, -0.25}, {0.25, 0.25}, {-0.25, 0.25}},
}

// CentroidShapeGradients returns the physical gradients of the shape functions
// of 2D element k at its centroid, one per element node, on the reference
// vertices.
func (m *Mesh) CentroidShapeGradients(k int) (grads []r3.Vec, err error) {
	dN, ok := centroidDerivatives[m.ElementTypes[k]]
	if !ok {
		err = fmt.Errorf("no shape gradients for %s element %d", m.ElementTypes[k], k)
		return
	}
	var xXi, xEta r3.Vec
	for a, v := range m.Elements[k] {
		xXi = r3.Add(xXi, r3.Scale(dN[a][0], m.Vertices[v]))
		xEta = r3.Add(xEta, r3.Scale(dN[a][1], m.Vertices[v]))
	}
	det := xXi.X*xEta.Y - xEta.X*xXi.Y
	if det <= 0 {
		err = utils.NewTopologyError("element %d is inverted, jacobian %g", k, det)
		return
	}
	var (
		xiX, xiY   = xEta.Y / det, -xEta.X / det
		etaX, etaY = -xXi.Y / det, xXi.X / det
	)
	grads = make([]r3.Vec, len(dN))
	for a := range dN {
		grads[a] = r3.Vec{
			X: dN[a][0]*xiX + dN[a][1]*etaX,
			Y: dN[a][0]*xiY + dN[a][1]*etaY,
		}
	}
	return
}

// DisplacementGradient is sum_a u_a (x) grad N_a over the nodes of element k
// as a 3x3 matrix, G[i][j] = du_i/dx_j
func (m *Mesh) DisplacementGradient(k int, grads []r3.Vec, u []r3.Vec) (G *mat.Dense) {
	G = mat.NewDense(3, 3, nil)
	for a, v := range m.Elements[k] {
		ua, ga := u[v], grads[a]
		for i, ui := range [3]float64{ua.X, ua.Y, ua.Z} {
			for j, gj := range [3]float64{ga.X, ga.Y, ga.Z} {
				G.Set(i, j, G.At(i, j)+ui*gj)
			}
		}
	}
	return
}
