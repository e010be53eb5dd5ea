package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

func TestWeightedGapSerial(t *testing.T) {
	fx := newFixture(t, 0.1)
	field := uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{}, r3.Vec{X: 1})
	p := NewWeightedGapProvider[ad.Real](fx.sm, fx.q, WithTangentialVelocity|WithNormalVelocity)
	require.NoError(t, p.Pass(field))
	require.Equal(t, 3, len(p.Dofs()))
	integrals := map[int]float64{leftNode: 0.25, midNode: 0.5, rightNode: 0.25}
	for id, w := range integrals {
		d := fx.node(id)
		wg, ok := p.Gap(d)
		require.True(t, ok)
		assert.InDelta(t, w, wg.Normalization, 1e-12)
		assert.InDelta(t, 0.1*w, float64(wg.Value), 1e-12)
		assert.InDelta(t, 0.1, float64(wg.Physical()), 1e-12)
		// secondary slides along +x, which is the tangent of a downward normal
		tv, _ := p.TangentialVelocity(d)
		assert.InDelta(t, w, float64(tv[0]), 1e-12)
		gd, _ := p.Data(d)
		assert.InDelta(t, 0, float64(gd.NormalVelocity), 1e-12)
	}
	{ // Moving the secondary down closes the gap and the rate is negative
		field = uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{Y: -0.04}, r3.Vec{Y: -1})
		require.NoError(t, p.Pass(field))
		gd, _ := p.Data(fx.node(midNode))
		assert.InDelta(t, 0.06, float64(gd.Gap.Physical()), 1e-12)
		assert.InDelta(t, -0.5, float64(gd.NormalVelocity), 1e-12)
	}
	{ // Old state only moves in TimestepSetup
		_, ok := p.OldGap(fx.node(midNode))
		assert.False(t, ok)
		p.TimestepSetup()
		g, ok := p.OldGap(fx.node(midNode))
		assert.True(t, ok)
		assert.InDelta(t, 0.06, g, 1e-12)
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{}, r3.Vec{})))
		g, _ = p.OldGap(fx.node(midNode))
		assert.InDelta(t, 0.06, g, 1e-12)
	}
}

func TestWeightedGapUnpaired(t *testing.T) {
	// The upper block overhangs the lower one so its right end has no partner
	m := stacked(0.1)
	for n := range m.Vertices {
		if upper(n) {
			m.Vertices[n].X *= 1.5
		}
	}
	sm, err := mortar.Generate(m, secondaryBottom, primaryTop, false)
	require.NoError(t, err)
	q := mortar.NewQuadrature(2, mortar.StandardBasis, types.Cartesian)
	td := newTestDofs(m, sm.SecondaryDofs())
	p := NewWeightedGapProvider[ad.Real](sm, q, 0)
	require.NoError(t, p.Pass(uniformField[ad.Real](m, td, r3.Vec{}, r3.Vec{})))
	left, _ := p.Gap(m.NodeDof(leftNode))
	assert.InDelta(t, 0.1, float64(left.Physical()), 1e-10)
	right, _ := p.Gap(m.NodeDof(rightNode))
	assert.Greater(t, float64(right.Physical()), 1e8)
	{ // A multiplier without a gap entry is driven to zero
		lm := &NormalLM[ad.Real]{Gaps: p, C: 1}
		assert.Equal(t, ad.Real(0.7), lm.Residual(m.NodeDof(3), 0.7))
	}
}

// The reconciled totals do not depend on how the segments are split over ranks
func TestWeightedGapRankInvariance(t *testing.T) {
	var (
		serial = make(map[int]GapData[ad.Real])
		quant  = WithTangentialVelocity | WithNormalVelocity | WithJump
		du, dv = r3.Vec{X: 0.01, Y: -0.02}, r3.Vec{X: 0.3, Y: 0.1}
	)
	{
		fx := newFixture(t, 0.1)
		p := NewWeightedGapProvider[ad.Real](fx.sm, fx.q, quant)
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, du, dv)))
		for _, d := range p.Dofs() {
			serial[d.ID], _ = p.Data(d)
		}
	}
	for _, np := range []int{2, 4} {
		for _, sendBack := range []bool{false, true} {
			m := stacked(0.1)
			require.NoError(t, m.Partition(np))
			sm, err := mortar.Generate(m, secondaryBottom, primaryTop, true)
			require.NoError(t, err)
			var (
				q      = mortar.NewQuadrature(2, mortar.StandardBasis, types.Cartesian)
				td     = newTestDofs(m, sm.SecondaryDofs())
				owned  = make([]map[int]GapData[ad.Real], np)
				all    = make([]map[int]GapData[ad.Real], np)
				counts = make([]int, np)
			)
			err = comm.NewWorld(np).Run(func(c *comm.Comm) error {
				p := NewWeightedGapProvider[ad.Real](sm, q, quant).
					Parallel(c, m.LocalView(c.Rank()), sendBack)
				if err := p.Pass(uniformField[ad.Real](m, td, du, dv)); err != nil {
					return err
				}
				owned[c.Rank()] = make(map[int]GapData[ad.Real])
				all[c.Rank()] = make(map[int]GapData[ad.Real])
				for _, d := range p.Owned() {
					owned[c.Rank()][d.ID], _ = p.Data(d)
				}
				for _, d := range p.Dofs() {
					all[c.Rank()][d.ID], _ = p.Data(d)
				}
				counts[c.Rank()] = len(sm.LocalSegments(c.Rank()))
				return nil
			})
			require.NoError(t, err)
			seen := make(map[int]int)
			for rank := 0; rank < np; rank++ {
				for id, gd := range owned[rank] {
					seen[id]++
					assertGapDataEqual(t, serial[id], gd)
				}
				if sendBack {
					for id, gd := range all[rank] {
						assertGapDataEqual(t, serial[id], gd)
					}
				} else {
					assert.Equal(t, len(owned[rank]), len(all[rank]))
				}
			}
			assert.Equal(t, len(serial), len(seen), "np=%d", np)
			for id, n := range seen {
				assert.Equal(t, 1, n, "node %d owned by %d ranks", id, n)
			}
			total := 0
			for _, n := range counts {
				total += n
			}
			assert.Equal(t, len(sm.Segments), total)
		}
	}
}

func assertGapDataEqual(t *testing.T, want, have GapData[ad.Real]) {
	t.Helper()
	assert.InDelta(t, float64(want.Gap.Value), float64(have.Gap.Value), 1e-13)
	assert.InDelta(t, want.Gap.Normalization, have.Gap.Normalization, 1e-13)
	assert.InDelta(t, float64(want.Velocity[0]), float64(have.Velocity[0]), 1e-13)
	assert.InDelta(t, float64(want.NormalVelocity), float64(have.NormalVelocity), 1e-13)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, float64(want.Jump[c]), float64(have.Jump[c]), 1e-13)
	}
}
