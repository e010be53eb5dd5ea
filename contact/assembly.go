package contact

import (
	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/utils"
)

// Sink receives residual contributions. Implementations for ad.Dual also
// scatter the derivatives into the Jacobian row.
type Sink[T ad.Number[T]] interface {
	Add(row int, r T)
}

// SparseSink is the residual vector and, optionally, the sparse Jacobian
type SparseSink struct {
	Residual []float64
	Jacobian *utils.DOK
}

func NewSparseSink(n int, withJacobian bool) (a *SparseSink) {
	a = &SparseSink{Residual: make([]float64, n)}
	if withJacobian {
		J := utils.NewDOK(n, n, "contact Jacobian")
		a.Jacobian = &J
	}
	return
}

func (a *SparseSink) Add(row int, r ad.Dual) {
	a.Residual[row] += r.V
	if a.Jacobian == nil {
		return
	}
	for _, p := range r.D {
		a.Jacobian.AddAt(row, p.Index, p.Val)
	}
}

// Merge adds another sink of the same size into a
func (a *SparseSink) Merge(b *SparseSink) {
	for i, v := range b.Residual {
		a.Residual[i] += v
	}
	if a.Jacobian != nil && b.Jacobian != nil {
		b.Jacobian.DoNonZero(func(i, j int, v float64) { a.Jacobian.AddAt(i, j, v) })
	}
}

// ResidualSink is the value only sink used by the ad.Real path
type ResidualSink []float64

func (rs ResidualSink) Add(row int, r ad.Real) { rs[row] += float64(r) }
