package contact

import (
	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/types"
)

// Multipliers reads the Lagrange multipliers out of the global solution,
// seeded with their own index so constraint rows get exact derivatives.
type Multipliers[T ad.Number[T]] struct {
	X    []float64
	Dofs DofMap
}

func (m Multipliers[T]) Value(d types.DofObject, which int) T {
	idx := m.Dofs.Multiplier(d, which)
	if idx < 0 {
		return ad.Zero[T]()
	}
	return ad.Variable[T](m.X[idx], idx)
}

// Traction makes the multipliers the traction of the interface force kernel
func (m Multipliers[T]) Traction(d types.DofObject) (normal T, tangential [2]T, ok bool) {
	if m.Dofs.Multiplier(d, 0) < 0 {
		return
	}
	normal = m.Value(d, 0)
	tangential[0], tangential[1] = m.Value(d, 1), m.Value(d, 2)
	return normal, tangential, true
}
