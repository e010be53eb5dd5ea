package contact

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

func newTestCZM(t *testing.T) (fx *fixture, p *WeightedGapProvider[ad.Real], cz *BilinearMixedModeCZM[ad.Real]) {
	fx = newFixture(t, 0)
	p = NewWeightedGapProvider[ad.Real](fx.sm, fx.q, WithJump)
	cz = NewBilinearMixedModeCZM(p)
	cz.Stiffness = 1e4
	cz.NormalStrength = 10
	cz.ShearStrength = 10
	cz.GIc = 0.01
	cz.GIIc = 0.02
	require.NoError(t, cz.Validate())
	return
}

func TestCZMDamageIsIrreversible(t *testing.T) {
	fx, p, cz := newTestCZM(t)
	mid := fx.node(midNode)
	var (
		openings = []float64{0.0005, 0.001, 0.0015, 0.001, 0, 0.0012, 0.0018, 0.003}
		damage   = []float64{0, 0, 2. / 3, 2. / 3, 2. / 3, 2. / 3, 8. / 9, 1}
		last     float64
	)
	for step, o := range openings {
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{Y: o}, r3.Vec{})))
		require.NoError(t, cz.Compute())
		d := cz.Damage(mid)
		assert.InDelta(t, damage[step], d, 1e-10, "step %d", step)
		assert.GreaterOrEqual(t, d, last, "step %d", step)
		// tension pulls the surfaces together, with the secant stiffness
		n, _, ok := cz.Traction(mid)
		require.True(t, ok)
		assert.InDelta(t, -(1-d)*1e4*o, float64(n), 1e-8, "step %d", step)
		cz.TimestepSetup()
		last = d
	}
	{ // Closing is not softened
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{Y: -0.0001}, r3.Vec{})))
		require.NoError(t, cz.Compute())
		n, _, _ := cz.Traction(mid)
		assert.InDelta(t, 1, float64(n), 1e-8)
	}
}

func TestCZMMixedMode(t *testing.T) {
	_, _, cz := newTestCZM(t)
	{ // Pure shear onset and failure
		assert.Equal(t, 0., cz.TrialDamage(0, 0.0009))
		assert.InDelta(t, 1, cz.TrialDamage(0, 0.004), 1e-12)
		assert.InDelta(t, 1, cz.TrialDamage(-0.01, 0.004), 1e-12)
	}
	{ // Mixed mode onset lies between the pure mode onsets
		dm := 0.00101
		dn, ds := dm/math.Sqrt2, dm/math.Sqrt2
		assert.Greater(t, cz.TrialDamage(dn, ds), 0.)
		assert.Less(t, cz.TrialDamage(dn, ds), 1.)
	}
	{ // Viscous regularization lags the rate independent value
		fx, p, cz := newTestCZM(t)
		cz.Viscosity, cz.Dt = 1, 1
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{Y: 0.0015}, r3.Vec{})))
		require.NoError(t, cz.Compute())
		assert.InDelta(t, 1./3, cz.Damage(fx.node(midNode)), 1e-10)
	}
	{ // Shear separation gives a tangential traction opposing it
		fx, p, cz := newTestCZM(t)
		require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{X: 0.0005}, r3.Vec{})))
		require.NoError(t, cz.Compute())
		_, tan, _ := cz.Traction(fx.node(midNode))
		// jump = primary - secondary = -0.0005 along the tangent +x
		assert.InDelta(t, 5, float64(tan[0]), 1e-8)
	}
}

func TestCZMRotatedFrame(t *testing.T) {
	fx, p, cz := newTestCZM(t)
	mid := fx.node(midNode)
	// a quarter turn takes the downward normal to +x
	cz.DeformationGradient = func(types.DofObject) mat.Matrix {
		return mat.NewDense(3, 3, []float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	}
	require.NoError(t, p.Pass(uniformField[ad.Real](fx.mesh, fx.dofs, r3.Vec{X: -0.0005}, r3.Vec{})))
	require.NoError(t, cz.Compute())
	n, _, _ := cz.Traction(mid)
	assert.InDelta(t, -5, float64(n), 1e-8)

	cz.DeformationGradient = func(types.DofObject) mat.Matrix {
		return mat.NewDense(3, 3, []float64{math.NaN(), 0, 0, 0, 1, 0, 0, 0, 1})
	}
	err := cz.Compute()
	require.Error(t, err)
	assert.True(t, utils.IsRecoverable(err))
}

func TestCZMValidate(t *testing.T) {
	_, _, cz := newTestCZM(t)
	cz.GIIc = 0
	err := cz.Validate()
	var ce *utils.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GI_c", ce.Param)
}
