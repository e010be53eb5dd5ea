package pairing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

func gridPoints(nx, ny, nz int) (pts Points) {
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				pts = append(pts, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)})
			}
		}
	}
	return
}

func TestIndexMatchesLinearScan(t *testing.T) {
	pts := gridPoints(7, 7, 3)
	tree := NewIndex(pts, 0)
	scan := NewIndex(pts, 1000)
	require.NotNil(t, tree.tree)
	require.Nil(t, scan.tree)
	for _, q := range []r3.Vec{{X: 3.1, Y: 2.9, Z: 1}, {}, {X: 6, Y: 6, Z: 2}, {X: -5}} {
		for _, r := range []float64{0.5, 1.01, 2.5} {
			assert.Equal(t, scan.RadiusSearch(q, r), tree.RadiusSearch(q, r))
		}
		i1, d1 := tree.Nearest(q)
		i2, d2 := scan.Nearest(q)
		assert.InDelta(t, d2, d1, 1e-14)
		assert.Equal(t, pts[i2], pts[i1])
	}
	// exact hit at a lattice point returns the point itself at zero distance
	m := tree.RadiusSearch(r3.Vec{X: 2, Y: 3, Z: 1}, utils.NODETOL)
	require.Equal(t, 1, len(m))
	assert.Equal(t, 2+3*7+49, m[0].Index)
	assert.Equal(t, 0., m[0].Dist2)

	empty := NewIndex(Points{}, 0)
	idx, _ := empty.Nearest(r3.Vec{})
	assert.Equal(t, -1, idx)
	assert.Nil(t, empty.RadiusSearch(r3.Vec{}, 1))
}

func TestPeriodicUnitCube(t *testing.T) {
	const (
		left  = 4
		right = 2
	)
	m := mesh.NewHexMesh(3, 3, 3, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	T := r3.Vec{X: 1}
	pb := NewTranslation(left, right, T)
	pm, err := BuildPeriodicNodeMap(m, []PeriodicBoundary{pb}, utils.NODETOL)
	require.NoError(t, err)
	assert.Equal(t, 16, len(pm))
	for _, p := range m.BoundaryNodes(left) {
		partners := pm.Partners(p)
		require.Equal(t, 1, len(partners), "node %d", p)
		q := partners[0]
		assert.Less(t, r3.Norm(r3.Sub(r3.Sub(m.Vertices[q], m.Vertices[p]), T)), utils.NODETOL)
	}

	// both directions at once
	pm, err = BuildPeriodicNodeMap(m, []PeriodicBoundary{pb, pb.Inverse()}, 0)
	require.NoError(t, err)
	assert.Equal(t, 32, len(pm))
	for _, q := range m.BoundaryNodes(right) {
		partners := pm.Partners(q)
		require.Equal(t, 1, len(partners))
		assert.Equal(t, []int{q}, pm.Partners(partners[0]))
	}

	// a transform that lands nowhere records nothing
	pm, err = BuildPeriodicNodeMap(m, []PeriodicBoundary{NewTranslation(left, right, r3.Vec{X: 0.5})}, 0)
	require.NoError(t, err)
	assert.Empty(t, pm)
}

func twoBlocks() (m *mesh.Mesh) {
	m = mesh.NewQuadMesh(2, 2, 0, 0, 1, 1)
	m.Append(mesh.NewQuadMesh(2, 2, 0, 1.05, 1, 2.05), 10)
	return
}

func TestDetectContactPairs(t *testing.T) {
	m := twoBlocks()
	bids := []int{12, 10, 2, 0}

	pairs, err := DetectContactPairs(m, bids, types.NodeProximity, 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, []BoundaryPair{{2, 10}}, pairs)

	pairs, err = DetectContactPairs(m, bids, types.CentroidProximity, 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, []BoundaryPair{{2, 10}}, pairs)

	pairs, err = DetectContactPairs(m, bids, types.CentroidProximity, 1.01, 0)
	require.NoError(t, err)
	assert.Equal(t, []BoundaryPair{{0, 2}, {2, 10}, {10, 12}}, pairs)

	_, err = DetectContactPairs(m, bids, types.NodeProximity, 0, 0)
	var ce *utils.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "automatic_pairing_distance", ce.Param)
}

func TestPairingNeedsReplicatedMesh(t *testing.T) {
	m := twoBlocks()
	require.NoError(t, m.Partition(2))
	m.Distribute()
	var ce *utils.ConfigError

	_, err := DetectContactPairs(m, []int{2, 10}, types.NodeProximity, 0.1, 0)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "parallel_type", ce.Param)

	_, err = BuildPeriodicNodeMap(m, []PeriodicBoundary{NewTranslation(3, 1, r3.Vec{X: 1})}, 0)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "parallel_type", ce.Param)
}
