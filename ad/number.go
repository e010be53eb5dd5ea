// Package ad provides the numeric types the contact algorithms are written
// against. Algorithms are generic over Number; Real carries no derivative
// storage and Dual carries a sparse derivative vector with respect to global
// unknowns.
package ad

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Number[T any] interface {
	Value() float64
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Scale(float64) T
	AddConst(float64) T
	Sqrt() T
	Pow(float64) T
	// FromFloat returns a constant of the receiver's type, ignoring the receiver
	FromFloat(float64) T
	// Var returns the independent variable for global unknown index
	Var(v float64, index int) T
}

// Const makes a constant with no derivatives
func Const[T Number[T]](v float64) T {
	var z T
	return z.FromFloat(v)
}

func Zero[T Number[T]]() T { return Const[T](0) }

// Variable seeds global unknown index with value v
func Variable[T Number[T]](v float64, index int) T {
	var z T
	return z.Var(v, index)
}

// Max and Min pick the larger/smaller operand including its derivatives. At
// a tie the derivatives are averaged, which keeps the complementarity
// residuals differentiable in the sense Newton needs.
func Max[T Number[T]](a, b T) T {
	switch {
	case a.Value() > b.Value():
		return a
	case a.Value() < b.Value():
		return b
	default:
		return a.Add(b).Scale(0.5)
	}
}

func Min[T Number[T]](a, b T) T {
	switch {
	case a.Value() < b.Value():
		return a
	case a.Value() > b.Value():
		return b
	default:
		return a.Add(b).Scale(0.5)
	}
}

func MaxConst[T Number[T]](a T, c float64) T { return Max(a, Const[T](c)) }
func MinConst[T Number[T]](a T, c float64) T { return Min(a, Const[T](c)) }

func Abs[T Number[T]](a T) T {
	if a.Value() < 0 {
		return a.Neg()
	}
	return a
}

// Norm is the regularized Euclidean norm sqrt(sum(v_i^2) + eps)
func Norm[T Number[T]](eps float64, v ...T) T {
	sum := Const[T](eps)
	for _, vi := range v {
		sum = sum.Add(vi.Mul(vi))
	}
	return sum.Sqrt()
}

// Vec is a 3-vector of numbers, used for gap and velocity vectors whose
// components carry derivatives.
type Vec[T Number[T]] [3]T

func VecFromR3[T Number[T]](v r3.Vec) Vec[T] {
	return Vec[T]{Const[T](v.X), Const[T](v.Y), Const[T](v.Z)}
}

func (v Vec[T]) Add(w Vec[T]) (r Vec[T]) {
	for i := range v {
		r[i] = v[i].Add(w[i])
	}
	return
}

func (v Vec[T]) Sub(w Vec[T]) (r Vec[T]) {
	for i := range v {
		r[i] = v[i].Sub(w[i])
	}
	return
}

func (v Vec[T]) Scale(f float64) (r Vec[T]) {
	for i := range v {
		r[i] = v[i].Scale(f)
	}
	return
}

// Dot projects onto a plain geometric direction
func (v Vec[T]) Dot(n r3.Vec) T {
	return v[0].Scale(n.X).Add(v[1].Scale(n.Y)).Add(v[2].Scale(n.Z))
}

func (v Vec[T]) Values() r3.Vec {
	return r3.Vec{X: v[0].Value(), Y: v[1].Value(), Z: v[2].Value()}
}

// Real is a plain float with zero-sized derivative storage
type Real float64

func (a Real) Value() float64          { return float64(a) }
func (a Real) Add(b Real) Real         { return a + b }
func (a Real) Sub(b Real) Real         { return a - b }
func (a Real) Mul(b Real) Real         { return a * b }
func (a Real) Div(b Real) Real         { return a / b }
func (a Real) Neg() Real               { return -a }
func (a Real) Scale(f float64) Real    { return a * Real(f) }
func (a Real) AddConst(c float64) Real { return a + Real(c) }
func (a Real) Sqrt() Real              { return Real(math.Sqrt(float64(a))) }
func (a Real) Pow(p float64) Real      { return Real(math.Pow(float64(a), p)) }
func (Real) FromFloat(v float64) Real  { return Real(v) }
func (Real) Var(v float64, _ int) Real { return Real(v) }
