package mortar

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

const (
	primaryTop      = 2
	secondaryBottom = 10
)

// stacked returns a 3 element block under a 2 element block separated by gap
func stacked(upperWidth, gap float64) (m *mesh.Mesh) {
	m = mesh.NewQuadMesh(3, 1, 0, 0, 1, 0.5)
	m.Append(mesh.NewQuadMesh(2, 1, 0, 0.5+gap, upperWidth, 1+gap), 10)
	return
}

func TestNodalFrames(t *testing.T) {
	m := stacked(1, 0)
	frames := NodalFrames(m, secondaryBottom)
	assert.Equal(t, 3, len(frames))
	for _, f := range frames {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(f.Normal, r3.Vec{Y: -1})), 1e-14)
		assert.InDelta(t, 0, r3.Dot(f.Normal, f.Tangents[0]), 1e-14)
		assert.InDelta(t, 1, r3.Norm(f.Tangents[0]), 1e-14)
	}
	for _, n := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 2, Z: -3}} {
		f := FrameFromNormal(n, 3)
		assert.InDelta(t, 0, r3.Dot(f.Normal, f.Tangents[0]), 1e-14)
		assert.InDelta(t, 0, r3.Dot(f.Normal, f.Tangents[1]), 1e-14)
		assert.InDelta(t, 0, r3.Dot(f.Tangents[0], f.Tangents[1]), 1e-14)
		// right handed
		assert.InDelta(t, 0, r3.Norm(r3.Sub(r3.Cross(f.Tangents[0], f.Tangents[1]), f.Normal)), 1e-14)
	}
}

func TestGenerateSegments(t *testing.T) {
	m := stacked(1, 0.1)
	sm, err := Generate(m, secondaryBottom, primaryTop, true)
	require.NoError(t, err)
	require.Equal(t, 4, len(sm.Segments))
	breaks := [][2]float64{{-1, 1. / 3}, {1. / 3, 1}, {-1, -1. / 3}, {-1. / 3, 1}}
	primaryElems := []int{0, 1, 1, 2}
	for i, seg := range sm.Segments {
		assert.InDeltaSlice(t, breaks[i][:], seg.Xi[:], 1e-12)
		assert.Equal(t, primaryElems[i], seg.Primary.Elem)
		assert.True(t, seg.HasPrimary())
		assert.Equal(t, 0, seg.Owner)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, sm.LocalSegments(0))
	assert.Empty(t, sm.LocalSegments(1))

	for _, basis := range []Basis{StandardBasis, DualBasis} {
		q := NewQuadrature(2, basis, types.Cartesian)
		var length float64
		integral := make(map[int]float64)
		for _, seg := range sm.Segments {
			dofs := q.TestDofs(sm, seg)
			for _, qp := range q.Points(sm, seg) {
				require.True(t, qp.HasPrimary)
				length += qp.Weight
				gap := r3.Dot(r3.Sub(qp.Primary, qp.Secondary), qp.Normal)
				assert.InDelta(t, 0.1, gap, 1e-12)
				assert.InDelta(t, qp.Secondary.X, qp.Primary.X, 1e-12)
				for i, d := range dofs {
					integral[d.ID] += qp.Test[i] * qp.Weight
				}
			}
		}
		assert.InDelta(t, 1, length, 1e-12)
		// upper block bottom nodes are 8, 9, 10 after the append
		assert.InDelta(t, 0.25, integral[8], 1e-12, basis.String())
		assert.InDelta(t, 0.5, integral[9], 1e-12, basis.String())
		assert.InDelta(t, 0.25, integral[10], 1e-12, basis.String())
	}
	{ // one dof per secondary element
		q := NewQuadrature(3, ConstantBasis, types.Cartesian)
		dofs := q.TestDofs(sm, sm.Segments[0])
		require.Equal(t, 1, len(dofs))
		assert.Equal(t, types.ElemDof, dofs[0].Kind)
		assert.Equal(t, 3, dofs[0].ID)
	}
}

func TestDualBasisIsBiorthogonal(t *testing.T) {
	q := NewQuadrature(3, DualBasis, types.Cartesian)
	std := NewQuadrature(3, StandardBasis, types.Cartesian)
	var M [2][2]float64
	for i, xi := range q.x {
		psi, phi := q.test(xi), std.test(xi)
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				M[a][b] += q.w[i] * psi[a] * phi[b]
			}
		}
	}
	assert.InDelta(t, 1, M[0][0], 1e-14)
	assert.InDelta(t, 1, M[1][1], 1e-14)
	assert.InDelta(t, 0, M[0][1], 1e-14)
	assert.InDelta(t, 0, M[1][0], 1e-14)
}

func TestUnpairedSegments(t *testing.T) {
	m := stacked(2, 0)
	sm, err := Generate(m, secondaryBottom, primaryTop, false)
	require.NoError(t, err)
	var unpaired int
	q := NewQuadrature(2, StandardBasis, types.Cartesian)
	for _, seg := range sm.Segments {
		if !seg.HasPrimary() {
			unpaired++
			assert.Equal(t, [2]int{-1, -1}, seg.PrimaryNodes)
			for _, qp := range q.Points(sm, seg) {
				assert.False(t, qp.HasPrimary)
			}
		}
	}
	assert.Equal(t, 1, unpaired)

	_, err = Generate(m, secondaryBottom, primaryTop, true)
	var te *utils.TopologyError
	assert.True(t, errors.As(err, &te))

	_, err = Generate(m, secondaryBottom, secondaryBottom, false)
	var ce *utils.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "primary_boundary", ce.Param)

	{ // an interface side set must lie on the exterior
		m := stacked(1, 0)
		m.AddSide(20, mesh.Side{Elem: 0, LocalSide: 1})
		_, err = Generate(m, secondaryBottom, 20, false)
		assert.True(t, errors.As(err, &te))
	}
}

func TestCoordFactor(t *testing.T) {
	p := r3.Vec{X: 2, Y: 5}
	assert.Equal(t, 1., CoordFactor(types.Cartesian, p))
	assert.InDelta(t, 4*math.Pi, CoordFactor(types.Axisymmetric, p), 1e-14)
	assert.InDelta(t, 16*math.Pi, CoordFactor(types.Spherical, p), 1e-14)
}
