package ContactPatch

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

// InterfaceKinematics gives the deformation gradient of the interface at a
// secondary test dof: the identity plus the displacement gradient averaged
// over the secondary elements under the dof's segments, averaged in turn
// with the same over the primary elements facing them.
type InterfaceKinematics struct {
	mesh               *mesh.Mesh
	grads              map[int][]r3.Vec
	secondary, primary map[types.DofObject][]int
}

func NewInterfaceKinematics(sm *mortar.SegmentMesh, q *mortar.Quadrature) (ik *InterfaceKinematics, err error) {
	ik = &InterfaceKinematics{
		mesh:      sm.Geometry,
		grads:     make(map[int][]r3.Vec),
		secondary: make(map[types.DofObject][]int),
		primary:   make(map[types.DofObject][]int),
	}
	addElem := func(to map[types.DofObject][]int, d types.DofObject, k int) (err error) {
		if _, ok := ik.grads[k]; !ok {
			if ik.grads[k], err = ik.mesh.CentroidShapeGradients(k); err != nil {
				return
			}
		}
		for _, e := range to[d] {
			if e == k {
				return
			}
		}
		to[d] = append(to[d], k)
		return
	}
	for _, seg := range sm.Segments {
		for _, d := range q.TestDofs(sm, seg) {
			if err = addElem(ik.secondary, d, seg.Secondary.Elem); err != nil {
				return
			}
			if !seg.HasPrimary() {
				continue
			}
			if err = addElem(ik.primary, d, seg.Primary.Elem); err != nil {
				return
			}
		}
	}
	return
}

// DeformationGradient is F at d for the nodal displacements u
func (ik *InterfaceKinematics) DeformationGradient(d types.DofObject, u []r3.Vec) mat.Matrix {
	var (
		F     = mat.NewDense(3, 3, nil)
		sides float64
	)
	for _, elems := range [][]int{ik.secondary[d], ik.primary[d]} {
		if len(elems) == 0 {
			continue
		}
		sides++
		for _, k := range elems {
			G := ik.mesh.DisplacementGradient(k, ik.grads[k], u)
			G.Scale(1/float64(len(elems)), G)
			F.Add(F, G)
		}
	}
	if sides > 1 {
		F.Scale(1/sides, F)
	}
	for i := 0; i < 3; i++ {
		F.Set(i, i, F.At(i, i)+1)
	}
	return F
}
