package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

// randomSPD makes a well conditioned symmetric positive definite tensor
func randomSPD(rng *rand.Rand) *mat.SymDense {
	B := mat.NewDense(Dim, Dim, nil)
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			B.Set(i, j, rng.Float64()-0.5)
		}
	}
	A := mat.NewSymDense(Dim, nil)
	A.SymOuterK(1, B)
	for i := 0; i < Dim; i++ {
		A.SetSym(i, i, A.At(i, i)+0.5)
	}
	return A
}

func assertMatEqual(t *testing.T, A, B mat.Matrix, tol float64) {
	t.Helper()
	assert.True(t, mat.EqualApprox(A, B, tol), "\n%v\n!=\n%v",
		mat.Formatted(A), mat.Formatted(B))
}

func TestFactorizedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 20; n++ {
		var A mat.Symmetric
		if n%2 == 0 {
			A = randomSPD(rng)
		} else { // indefinite
			A = NewSymTensor(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(),
				rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
		}
		f, err := Factorize(A)
		require.NoError(t, err)
		assertMatEqual(t, A, f.Assemble(), 1e-6)
	}
}

func TestSpectralFunctions(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 0; n < 10; n++ {
		A := randomSPD(rng)
		f, err := Factorize(A)
		require.NoError(t, err)
		{ // exp against the gonum matrix exponential
			var E mat.Dense
			E.Exp(A)
			assertMatEqual(t, &E, f.Exp().Assemble(), 1e-6)
		}
		{ // log inverts exp
			fl, err := Factorize(f.Log().Assemble())
			require.NoError(t, err)
			assertMatEqual(t, A, fl.Exp().Assemble(), 1e-6)
		}
		{ // sqrt and cbrt
			var S, C, C3 mat.Dense
			s := f.Sqrt().Assemble()
			S.Mul(s, s)
			assertMatEqual(t, A, &S, 1e-6)
			c := f.Cbrt().Assemble()
			C.Mul(c, c)
			C3.Mul(&C, c)
			assertMatEqual(t, A, &C3, 1e-6)
		}
		{ // pow matches a direct eigenvalue transform
			var A2 mat.Dense
			A2.Mul(A, A)
			assertMatEqual(t, &A2, f.Pow(2).Assemble(), 1e-6)
			var I mat.Dense
			I.Mul(A, f.Inverse().Assemble())
			assertMatEqual(t, Identity(), &I, 1e-6)
		}
	}
}

func TestPolarDecompose(t *testing.T) {
	{ // rotation about z times a stretch
		theta := 0.3
		Rz := mat.NewDense(3, 3, []float64{
			math.Cos(theta), -math.Sin(theta), 0,
			math.Sin(theta), math.Cos(theta), 0,
			0, 0, 1,
		})
		Ust := NewSymTensor(1.2, 0.9, 1.05, 0.02, 0, 0.05)
		var F mat.Dense
		F.Mul(Rz, Ust)
		R, U, err := PolarDecompose(&F)
		require.NoError(t, err)
		assertMatEqual(t, Rz, R, 1e-8)
		assertMatEqual(t, Ust, U, 1e-8)
		v := r3.Vec{X: 1}
		rv := RotateVector(R, v)
		assert.InDelta(t, math.Cos(theta), rv.X, 1e-8)
		back := RotateVectorT(R, rv)
		assert.InDelta(t, 1, back.X, 1e-8)
	}
	{ // non-finite gradients ask for a step cut
		F := mat.NewDense(3, 3, []float64{1, 0, 0, 0, math.NaN(), 0, 0, 0, 1})
		_, _, err := PolarDecompose(F)
		require.Error(t, err)
		assert.True(t, utils.IsRecoverable(err))
	}
	{ // inverted element
		F := mat.NewDense(3, 3, []float64{-1, 0, 0, 0, 1, 0, 0, 0, 1})
		_, _, err := PolarDecompose(F)
		assert.True(t, utils.IsRecoverable(err))
	}
	{ // wrong shape is not recoverable
		_, _, err := PolarDecompose(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
		require.Error(t, err)
		assert.False(t, utils.IsRecoverable(err))
	}
}
