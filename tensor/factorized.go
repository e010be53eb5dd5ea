// Package tensor holds the symmetric rank-two tensor utilities needed by the
// cohesive zone kinematics: eigen factorization, spectral functions and polar
// decomposition of a deformation gradient.
package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

const Dim = 3

// NewSymTensor builds a symmetric tensor from its six independent components
func NewSymTensor(xx, yy, zz, yz, xz, xy float64) *mat.SymDense {
	return mat.NewSymDense(Dim, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})
}

func Identity() *mat.SymDense { return NewSymTensor(1, 1, 1, 0, 0, 0) }

// Factorized stores a symmetric tensor as eigenvalues and eigenvectors,
// A = Q diag(λ) Q^T with the eigenvectors in the columns of Q.
type Factorized struct {
	Eigenvalues  [Dim]float64
	Eigenvectors *mat.Dense
}

func Factorize(A mat.Symmetric) (f *Factorized, err error) {
	if n := A.SymmetricDim(); n != Dim {
		err = fmt.Errorf("tensor dimension must be %d, have %d", Dim, n)
		return
	}
	var es mat.EigenSym
	if ok := es.Factorize(A, true); !ok {
		err = fmt.Errorf("symmetric eigen decomposition failed to converge")
		return
	}
	f = &Factorized{Eigenvectors: mat.NewDense(Dim, Dim, nil)}
	es.VectorsTo(f.Eigenvectors)
	copy(f.Eigenvalues[:], es.Values(nil))
	return
}

// Assemble reconstructs Q diag(λ) Q^T
func (f *Factorized) Assemble() *mat.SymDense {
	var (
		Q = f.Eigenvectors
		A = mat.NewSymDense(Dim, nil)
	)
	for i := 0; i < Dim; i++ {
		for j := i; j < Dim; j++ {
			var sum float64
			for k := 0; k < Dim; k++ {
				sum += Q.At(i, k) * f.Eigenvalues[k] * Q.At(j, k)
			}
			A.SetSym(i, j, sum)
		}
	}
	return A
}

// Apply maps every eigenvalue through fn, keeping the eigenvectors
func (f *Factorized) Apply(fn func(float64) float64) *Factorized {
	r := &Factorized{Eigenvectors: mat.DenseCopyOf(f.Eigenvectors)}
	for i, lam := range f.Eigenvalues {
		r.Eigenvalues[i] = fn(lam)
	}
	return r
}

func (f *Factorized) Log() *Factorized  { return f.Apply(math.Log) }
func (f *Factorized) Exp() *Factorized  { return f.Apply(math.Exp) }
func (f *Factorized) Sqrt() *Factorized { return f.Apply(math.Sqrt) }
func (f *Factorized) Cbrt() *Factorized { return f.Apply(math.Cbrt) }

func (f *Factorized) Pow(p float64) *Factorized {
	return f.Apply(func(x float64) float64 { return math.Pow(x, p) })
}

func (f *Factorized) Inverse() *Factorized {
	return f.Apply(func(x float64) float64 { return 1. / x })
}

func (f *Factorized) String() string {
	return fmt.Sprintf("λ = %v\nQ = %v", f.Eigenvalues,
		mat.Formatted(f.Eigenvectors, mat.Prefix("    ")))
}

// IsFinite reports whether every entry of M is finite
func IsFinite(M mat.Matrix) bool {
	r, c := M.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := M.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// PolarDecompose splits a deformation gradient F = R U into a rotation R and
// the right stretch U = sqrt(F^T F). A non-finite or inverted F is reported
// as a recoverable error so the caller can cut the step.
func PolarDecompose(F mat.Matrix) (R *mat.Dense, U *mat.SymDense, err error) {
	if r, c := F.Dims(); r != Dim || c != Dim {
		err = fmt.Errorf("deformation gradient must be %dx%d, have %dx%d", Dim, Dim, r, c)
		return
	}
	if !IsFinite(F) {
		err = utils.NewRecoverableError("deformation gradient is not finite")
		return
	}
	if det := mat.Det(F); det <= 0 {
		err = utils.NewRecoverableError("deformation gradient determinant %g is not positive", det)
		return
	}
	C := mat.NewSymDense(Dim, nil)
	C.SymOuterK(1, mat.DenseCopyOf(F).T())
	var fc *Factorized
	if fc, err = Factorize(C); err != nil {
		return
	}
	U = fc.Sqrt().Assemble()
	R = mat.NewDense(Dim, Dim, nil)
	R.Mul(F, fc.Pow(-0.5).Assemble())
	return
}

// RotateVector returns M v
func RotateVector(M mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: M.At(0, 0)*v.X + M.At(0, 1)*v.Y + M.At(0, 2)*v.Z,
		Y: M.At(1, 0)*v.X + M.At(1, 1)*v.Y + M.At(1, 2)*v.Z,
		Z: M.At(2, 0)*v.X + M.At(2, 1)*v.Y + M.At(2, 2)*v.Z,
	}
}

// RotateVectorT returns M^T v
func RotateVectorT(M mat.Matrix, v r3.Vec) r3.Vec {
	return RotateVector(M.T(), v)
}
