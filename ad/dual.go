package ad

import (
	"fmt"
	"math"
	"strings"
)

// Partial is one nonzero entry of a derivative vector
type Partial struct {
	Index int
	Val   float64
}

// Derivatives is a sparse derivative vector sorted by Index
type Derivatives []Partial

// Dual is a value with its sparse derivative vector with respect to global
// unknowns.
type Dual struct {
	V float64
	D Derivatives
}

// Seed makes the independent variable for global unknown index
func Seed(v float64, index int) Dual {
	return Dual{V: v, D: Derivatives{{Index: index, Val: 1}}}
}

func (a Dual) Value() float64 { return a.V }

func (a Dual) Deriv(index int) float64 {
	for _, p := range a.D {
		if p.Index == index {
			return p.Val
		}
		if p.Index > index {
			break
		}
	}
	return 0
}

func (a Dual) Add(b Dual) Dual {
	return Dual{V: a.V + b.V, D: combine(a.D, 1, b.D, 1)}
}

func (a Dual) Sub(b Dual) Dual {
	return Dual{V: a.V - b.V, D: combine(a.D, 1, b.D, -1)}
}

func (a Dual) Mul(b Dual) Dual {
	return Dual{V: a.V * b.V, D: combine(a.D, b.V, b.D, a.V)}
}

func (a Dual) Div(b Dual) Dual {
	inv := 1. / b.V
	return Dual{V: a.V * inv, D: combine(a.D, inv, b.D, -a.V*inv*inv)}
}

func (a Dual) Neg() Dual { return a.Scale(-1) }

func (a Dual) Scale(f float64) Dual {
	return Dual{V: a.V * f, D: a.D.scaled(f)}
}

func (a Dual) AddConst(c float64) Dual {
	return Dual{V: a.V + c, D: a.D}
}

func (a Dual) Sqrt() Dual {
	s := math.Sqrt(a.V)
	return Dual{V: s, D: a.D.scaled(0.5 / s)}
}

func (a Dual) Pow(p float64) Dual {
	return Dual{V: math.Pow(a.V, p), D: a.D.scaled(p * math.Pow(a.V, p-1))}
}

func (Dual) FromFloat(v float64) Dual      { return Dual{V: v} }
func (Dual) Var(v float64, index int) Dual { return Seed(v, index) }

func (a Dual) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%g", a.V)
	if len(a.D) != 0 {
		sb.WriteString(" [")
		for i, p := range a.D {
			if i != 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d:%g", p.Index, p.Val)
		}
		sb.WriteString("]")
	}
	return sb.String()
}

func (d Derivatives) scaled(f float64) (r Derivatives) {
	if len(d) == 0 {
		return nil
	}
	r = make(Derivatives, len(d))
	for i, p := range d {
		r[i] = Partial{p.Index, p.Val * f}
	}
	return
}

// combine returns sa*a + sb*b as a sorted sparse vector
func combine(a Derivatives, sa float64, b Derivatives, sb float64) (r Derivatives) {
	switch {
	case len(a) == 0:
		return b.scaled(sb)
	case len(b) == 0:
		return a.scaled(sa)
	}
	r = make(Derivatives, 0, len(a)+len(b))
	var i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Index < b[j].Index:
			r = append(r, Partial{a[i].Index, sa * a[i].Val})
			i++
		case a[i].Index > b[j].Index:
			r = append(r, Partial{b[j].Index, sb * b[j].Val})
			j++
		default:
			r = append(r, Partial{a[i].Index, sa*a[i].Val + sb*b[j].Val})
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		r = append(r, Partial{a[i].Index, sa * a[i].Val})
	}
	for ; j < len(b); j++ {
		r = append(r, Partial{b[j].Index, sb * b[j].Val})
	}
	return
}
