package ad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDualArithmetic(t *testing.T) {
	var (
		x = Seed(3, 0)
		y = Seed(2, 5)
	)
	{ // product and quotient rules
		p := x.Mul(y)
		assert.Equal(t, 6., p.V)
		assert.Equal(t, 2., p.Deriv(0))
		assert.Equal(t, 3., p.Deriv(5))
		assert.Equal(t, 0., p.Deriv(1))

		q := x.Div(y)
		assert.InDelta(t, 1.5, q.V, 1e-15)
		assert.InDelta(t, 0.5, q.Deriv(0), 1e-15)
		assert.InDelta(t, -0.75, q.Deriv(5), 1e-15)
	}
	{ // derivative cancellation keeps the entry, with zero value
		z := x.Sub(x)
		assert.Equal(t, 0., z.V)
		assert.Equal(t, 0., z.Deriv(0))
	}
	{ // sqrt and pow
		s := x.Mul(x).Sqrt()
		assert.InDelta(t, 3., s.V, 1e-14)
		assert.InDelta(t, 1., s.Deriv(0), 1e-14)
		c := x.Pow(1. / 3.)
		assert.InDelta(t, math.Cbrt(3), c.V, 1e-14)
		assert.InDelta(t, math.Pow(3, -2./3.)/3, c.Deriv(0), 1e-14)
	}
	{ // constants carry no derivatives
		c := Const[Dual](4)
		assert.Nil(t, c.D)
		assert.Equal(t, Derivatives{{0, 4}}, x.Mul(c).D)
	}
}

func TestMaxMinTies(t *testing.T) {
	var (
		a = Seed(1, 0)
		b = Seed(1, 1)
	)
	m := Max(a, b)
	assert.Equal(t, 1., m.V)
	assert.Equal(t, 0.5, m.Deriv(0))
	assert.Equal(t, 0.5, m.Deriv(1))
	assert.Equal(t, 1., Min(a, Seed(2, 1)).Deriv(0))
	assert.Equal(t, Real(2), Max(Real(-1), Real(2)))
	assert.Equal(t, Real(0), MaxConst(Real(-1), 0))
	assert.Equal(t, 1., Abs(Seed(-2, 3)).Deriv(3)*-1)
}

func TestRealMatchesDualValues(t *testing.T) {
	f := func(a, b float64) (float64, float64) {
		dr := Norm(1e-12, Real(a), Real(b)).Mul(Real(a)).Sub(Max(Real(a), Real(b)))
		dd := Norm(1e-12, Seed(a, 0), Seed(b, 1)).Mul(Seed(a, 0)).Sub(Max(Seed(a, 0), Seed(b, 1)))
		return dr.Value(), dd.Value()
	}
	for _, ab := range [][2]float64{{1, 2}, {-3, 0.5}, {0, 0}, {4, -4}} {
		r, d := f(ab[0], ab[1])
		assert.InDelta(t, r, d, 1e-14)
	}
}

func TestVec(t *testing.T) {
	v := Vec[Dual]{Seed(1, 0), Seed(2, 1), Seed(3, 2)}
	w := VecFromR3[Dual](r3.Vec{X: 1, Y: 1, Z: 1})
	g := v.Sub(w)
	assert.Equal(t, r3.Vec{X: 0, Y: 1, Z: 2}, g.Values())
	n := r3.Vec{X: 0, Y: 1, Z: 0}
	gn := g.Dot(n)
	assert.Equal(t, 1., gn.V)
	assert.Equal(t, 1., gn.Deriv(1))
	assert.Equal(t, 0., gn.Deriv(0))
	assert.Equal(t, 2., v.Scale(2).Add(w)[0].V-1)
}
