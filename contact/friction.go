package contact

import (
	"math"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// Friction gives the friction coefficient for a contact pressure and a slip speed
type Friction interface {
	Coefficient(pressure, slipSpeed float64) float64
}

type ConstantFriction float64

func (mu ConstantFriction) Coefficient(_, _ float64) float64 { return float64(mu) }

// VelocityWeakening decays from Static to Kinetic as the slip speed grows
type VelocityWeakening struct {
	Static, Kinetic, DecayVelocity float64
}

func (vw VelocityWeakening) Coefficient(_, slipSpeed float64) float64 {
	if vw.DecayVelocity <= 0 {
		return vw.Kinetic
	}
	return vw.Kinetic + (vw.Static-vw.Kinetic)*math.Exp(-math.Abs(slipSpeed)/vw.DecayVelocity)
}

// FrictionalLM is the Coulomb condition on the tangential multipliers. With
// trial force T = lambda_t + c_t*v_t*dt and Coulomb bound mu*(lambda_n + c*g)
// the residual
//
//	max(mu*(lambda_n + c*g), |T|)*lambda_t - mu*max(0, lambda_n + c*g)*T
//
// sticks (lambda_t = T) inside the cone and slips on it otherwise. In 3D the
// two tangential multipliers are treated as one vector.
type FrictionalLM[T ad.Number[T]] struct {
	Normal *NormalLM[T]
	Mu     Friction
	Ct     float64
	Dt     float64
	// Epsilon is the normal multiplier below which no friction is transmitted
	Epsilon float64
	// NormEpsilon regularizes |T| at zero slip in 3D
	NormEpsilon float64
}

// Residual returns one residual per tangent direction
func (f *FrictionalLM[T]) Residual(d types.DofObject, lambdaN T, lambdaT [2]T) (r [2]T) {
	var (
		nt     = f.Normal.Gaps.Dim() - 1
		gd, ok = f.Normal.Gaps.Data(d)
	)
	if !ok || lambdaN.Value() < f.Epsilon {
		return lambdaT
	}
	var (
		cg    = gd.Gap.Value.Scale(f.Normal.scale(gd.Gap))
		ct    = f.Ct
		trial [2]T
		speed float64
	)
	if f.Normal.NormalizeC && gd.Gap.Normalization > 0 {
		ct /= gd.Gap.Normalization
	}
	for k := 0; k < nt; k++ {
		trial[k] = lambdaT[k].Add(gd.Velocity[k].Scale(ct * f.Dt))
		speed += math.Pow(gd.Velocity[k].Value(), 2)
	}
	if gd.Gap.Normalization > 0 {
		speed = math.Sqrt(speed) / gd.Gap.Normalization
	}
	var (
		mu      = f.Mu.Coefficient(lambdaN.Value(), speed)
		pn      = lambdaN.Add(cg)
		bound   = pn.Scale(mu)
		capNorm = ad.MaxConst(pn, 0).Scale(mu)
	)
	var trialMag T
	if nt == 1 {
		trialMag = ad.Abs(trial[0])
	} else {
		eps := f.NormEpsilon
		if eps <= 0 {
			eps = DefaultNCPEpsilon
		}
		trialMag = ad.Norm(eps, trial[0], trial[1])
	}
	m := ad.Max(bound, trialMag)
	for k := 0; k < nt; k++ {
		r[k] = m.Mul(lambdaT[k]).Sub(capNorm.Mul(trial[k]))
	}
	return
}

// CheckMultipliers requires every tangential multiplier of a dof that has
// the first one, so 3D friction never runs with half a tangent vector
func (f *FrictionalLM[T]) CheckMultipliers(dofs []types.DofObject, dm DofMap) error {
	nt := f.Normal.Gaps.Dim() - 1
	for _, d := range dofs {
		if dm.Multiplier(d, 1) < 0 {
			continue
		}
		for k := 1; k < nt; k++ {
			if dm.Multiplier(d, k+1) < 0 {
				return utils.NewConfigError("tangential_lm_2",
					"3D friction needs a second tangential multiplier, none for %s", d)
			}
		}
	}
	return nil
}

// Enforce adds the tangential residuals of every dof with tangential multipliers
func (f *FrictionalLM[T]) Enforce(dofs []types.DofObject, lm Multipliers[T], sink Sink[T]) (err error) {
	if err = f.CheckMultipliers(dofs, lm.Dofs); err != nil {
		return
	}
	nt := f.Normal.Gaps.Dim() - 1
	for _, d := range dofs {
		if lm.Dofs.Multiplier(d, 1) < 0 {
			continue
		}
		lambdaT := [2]T{lm.Value(d, 1), lm.Value(d, 2)}
		r := f.Residual(d, lm.Value(d, 0), lambdaT)
		for k := 0; k < nt; k++ {
			sink.Add(lm.Dofs.Multiplier(d, k+1), r[k])
		}
	}
	return
}
