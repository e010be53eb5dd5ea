package contact

import (
	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/types"
)

// DefaultNCPEpsilon keeps the Fischer-Burmeister function differentiable at
// the origin.
const DefaultNCPEpsilon = 1e-12

// NCP is the complementarity function for a >= 0, b >= 0, a*b = 0. Both
// variants vanish exactly on the complementarity set and are negative when
// either argument is.
func NCP[T ad.Number[T]](kind types.NCPType, a, b T, eps float64) T {
	switch kind {
	case types.NCPFischerBurmeister:
		if eps <= 0 {
			eps = DefaultNCPEpsilon
		}
		return a.Add(b).Sub(ad.Norm(eps, a, b))
	default:
		return ad.Min(a, b)
	}
}
