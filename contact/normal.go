package contact

import (
	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/types"
)

// NormalConstraint is the residual of one normal multiplier dof
type NormalConstraint[T ad.Number[T]] interface {
	Residual(d types.DofObject, lambda T) T
}

// EnforceNormal adds the residual of every dof with a normal multiplier
func EnforceNormal[T ad.Number[T]](c NormalConstraint[T], dofs []types.DofObject, lm Multipliers[T], sink Sink[T]) {
	for _, d := range dofs {
		row := lm.Dofs.Multiplier(d, 0)
		if row < 0 {
			continue
		}
		sink.Add(row, c.Residual(d, lm.Value(d, 0)))
	}
}

// NormalLM is the primal dual active set condition on the normal multiplier,
// NCP(lambda, c*g). A dof without a gap entry is not in contact and its
// multiplier is driven to zero.
type NormalLM[T ad.Number[T]] struct {
	Gaps       GapProvider[T]
	C          float64
	NormalizeC bool
	NCP        types.NCPType
	Epsilon    float64
}

// scale is c, optionally divided by the integral of the test function so the
// condition does not depend on the local mesh size
func (c *NormalLM[T]) scale(wg WeightedGap[T]) float64 {
	if c.NormalizeC && wg.Normalization > 0 {
		return c.C / wg.Normalization
	}
	return c.C
}

// ScaledGap is c*g for dof d
func (c *NormalLM[T]) ScaledGap(d types.DofObject) (cg T, ok bool) {
	var wg WeightedGap[T]
	if wg, ok = c.Gaps.Gap(d); ok {
		cg = wg.Value.Scale(c.scale(wg))
	}
	return
}

func (c *NormalLM[T]) Residual(d types.DofObject, lambda T) T {
	cg, ok := c.ScaledGap(d)
	if !ok {
		return lambda
	}
	return NCP(c.NCP, lambda, cg, c.Epsilon)
}

// Active reports the derived contact state of d for multiplier value lambda
func (c *NormalLM[T]) Active(d types.DofObject, lambda float64) bool {
	cg, ok := c.ScaledGap(d)
	return ok && lambda-cg.Value() > 0
}

// DynamicNormalLM switches a dof that was closed at the end of the previous
// step from the gap condition to the gap rate condition of the Newmark
// scheme, so contact does not reopen from discretization noise.
type DynamicNormalLM[T ad.Number[T]] struct {
	NormalLM[T]
	Gaps             *WeightedGapProvider[T]
	Beta, Gamma      float64
	Dt               float64
	CaptureTolerance float64

	persistent map[types.DofObject]bool
}

func NewDynamicNormalLM[T ad.Number[T]](gaps *WeightedGapProvider[T], normal NormalLM[T],
	beta, gamma, captureTolerance float64) (c *DynamicNormalLM[T]) {
	normal.Gaps = gaps
	return &DynamicNormalLM[T]{
		NormalLM:         normal,
		Gaps:             gaps,
		Beta:             beta,
		Gamma:            gamma,
		CaptureTolerance: captureTolerance,
		persistent:       make(map[types.DofObject]bool),
	}
}

// TimestepSetup classifies dofs from the previous converged step. It must run
// after the provider's TimestepSetup and stays fixed during the step.
func (c *DynamicNormalLM[T]) TimestepSetup() {
	c.persistent = make(map[types.DofObject]bool)
	for _, d := range c.Gaps.Dofs() {
		if g, ok := c.Gaps.OldGap(d); ok && g < c.CaptureTolerance {
			c.persistent[d] = true
		}
	}
}

func (c *DynamicNormalLM[T]) Persistent(d types.DofObject) bool { return c.persistent[d] }

func (c *DynamicNormalLM[T]) Residual(d types.DofObject, lambda T) T {
	if !c.persistent[d] {
		return c.NormalLM.Residual(d, lambda)
	}
	gd, ok := c.Gaps.Data(d)
	if !ok {
		return lambda
	}
	rate := gd.NormalVelocity.Scale(c.Beta / c.Gamma * c.Dt * c.scale(gd.Gap))
	return NCP(c.NCP, lambda, rate, c.Epsilon)
}

// GluedLM ties the surfaces: the weighted gap and the weighted tangential
// slip increment are both driven to zero and the multipliers carry either sign.
type GluedLM[T ad.Number[T]] struct {
	NormalLM[T]
	Dt float64
}

func (c *GluedLM[T]) Residual(d types.DofObject, lambda T) T {
	cg, ok := c.ScaledGap(d)
	if !ok {
		return lambda
	}
	return cg
}

func (c *GluedLM[T]) Enforce(dofs []types.DofObject, lm Multipliers[T], sink Sink[T]) {
	EnforceNormal[T](c, dofs, lm, sink)
	for _, d := range dofs {
		gd, ok := c.Gaps.Data(d)
		for k := 0; k < c.Gaps.Dim()-1; k++ {
			row := lm.Dofs.Multiplier(d, k+1)
			if row < 0 {
				continue
			}
			if !ok {
				sink.Add(row, lm.Value(d, k+1))
				continue
			}
			sink.Add(row, gd.Velocity[k].Scale(c.C*c.Dt/c.norm(gd.Gap)))
		}
	}
}

func (c *GluedLM[T]) norm(wg WeightedGap[T]) float64 {
	if c.NormalizeC && wg.Normalization > 0 {
		return wg.Normalization
	}
	return 1
}
