package contact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/tensor"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// BilinearMixedModeCZM is a cohesive interface with a linear elastic branch up
// to damage onset and linear softening to failure. The mixed mode onset and
// the Benzeggagh-Kenane propagation criterion combine the normal and shear
// separations. Damage is a history variable: it never decreases across
// converged steps and is held fixed while differentiating the traction.
type BilinearMixedModeCZM[T ad.Number[T]] struct {
	Gaps           *WeightedGapProvider[T]
	NormalStrength float64
	ShearStrength  float64
	GIc, GIIc      float64
	Stiffness      float64
	BKExponent     float64
	Viscosity      float64
	Dt             float64
	// DeformationGradient, when set, rotates the reference frame of d by the
	// rotation part of the interface deformation gradient
	DeformationGradient func(d types.DofObject) mat.Matrix

	damage    map[types.DofObject]float64
	oldDamage map[types.DofObject]float64
	normal    map[types.DofObject]T
	shear     map[types.DofObject][2]T
}

func NewBilinearMixedModeCZM[T ad.Number[T]](gaps *WeightedGapProvider[T]) *BilinearMixedModeCZM[T] {
	return &BilinearMixedModeCZM[T]{
		Gaps:       gaps,
		BKExponent: 2,
		damage:     make(map[types.DofObject]float64),
		oldDamage:  make(map[types.DofObject]float64),
	}
}

// Validate checks the material constants
func (cz *BilinearMixedModeCZM[T]) Validate() error {
	switch {
	case cz.Stiffness <= 0:
		return utils.NewConfigError("penalty_stiffness", "must be positive, have %g", cz.Stiffness)
	case cz.NormalStrength <= 0:
		return utils.NewConfigError("normal_strength", "must be positive, have %g", cz.NormalStrength)
	case cz.ShearStrength <= 0:
		return utils.NewConfigError("shear_strength", "must be positive, have %g", cz.ShearStrength)
	case cz.GIc <= 0 || cz.GIIc <= 0:
		return utils.NewConfigError("GI_c", "fracture energies must be positive, have %g and %g", cz.GIc, cz.GIIc)
	case cz.Viscosity < 0:
		return utils.NewConfigError("viscosity", "must not be negative, have %g", cz.Viscosity)
	}
	return nil
}

// frame is the local frame of d in the current configuration
func (cz *BilinearMixedModeCZM[T]) frame(d types.DofObject) (f mortar.NodalFrame, err error) {
	f = cz.Gaps.Frame(d)
	if cz.DeformationGradient == nil {
		return
	}
	var R *mat.Dense
	if R, _, err = tensor.PolarDecompose(cz.DeformationGradient(d)); err != nil {
		err = fmt.Errorf("cohesive kinematics at %v: %w", d, err)
		return
	}
	f.Normal = tensor.RotateVector(R, f.Normal)
	for k := range f.Tangents {
		f.Tangents[k] = tensor.RotateVector(R, f.Tangents[k])
	}
	return
}

// separation projects the physical jump of d into its frame
func (cz *BilinearMixedModeCZM[T]) separation(gd GapData[T], f mortar.NodalFrame) (dn T, ds [2]T) {
	jump := gd.Jump
	if gd.Gap.Normalization > 0 {
		jump = jump.Scale(1 / gd.Gap.Normalization)
	}
	dn = jump.Dot(f.Normal)
	for k := 0; k < cz.Gaps.Dim()-1; k++ {
		ds[k] = jump.Dot(f.Tangents[k])
	}
	return
}

// TrialDamage is the rate independent damage for a normal opening dn and a
// shear separation magnitude ds
func (cz *BilinearMixedModeCZM[T]) TrialDamage(dn, ds float64) float64 {
	var (
		K        = cz.Stiffness
		dn0, ds0 = cz.NormalStrength / K, cz.ShearStrength / K
		open     = math.Max(dn, 0)
		dm       = math.Sqrt(open*open + ds*ds)
		onset    float64
		final    float64
	)
	if dm == 0 {
		return 0
	}
	if dn > 0 {
		beta := ds / dn
		onset = dn0 * ds0 * math.Sqrt((1+beta*beta)/(ds0*ds0+beta*beta*dn0*dn0))
		mix := math.Pow(beta*beta/(1+beta*beta), cz.BKExponent)
		final = 2 / (K * onset) * (cz.GIc + (cz.GIIc-cz.GIc)*mix)
	} else {
		onset = ds0
		final = 2 * cz.GIIc / (K * onset)
	}
	if dm <= onset {
		return 0
	}
	if final <= onset {
		return 1
	}
	return math.Min(1, final*(dm-onset)/(dm*(final-onset)))
}

// Compute updates damage and tractions for every dof of the provider. A
// deformation gradient that cannot be decomposed returns a recoverable error.
func (cz *BilinearMixedModeCZM[T]) Compute() (err error) {
	cz.normal = make(map[types.DofObject]T)
	cz.shear = make(map[types.DofObject][2]T)
	for _, d := range cz.Gaps.Dofs() {
		gd, _ := cz.Gaps.Data(d)
		var f mortar.NodalFrame
		if f, err = cz.frame(d); err != nil {
			return
		}
		dn, ds := cz.separation(gd, f)
		shearMag := math.Hypot(ds[0].Value(), ds[1].Value())
		dmg := cz.TrialDamage(dn.Value(), shearMag)
		if cz.Viscosity > 0 && cz.Dt > 0 {
			dmg = (dmg*cz.Dt + cz.Viscosity*cz.oldDamage[d]) / (cz.Viscosity + cz.Dt)
		}
		dmg = math.Min(1, math.Max(dmg, cz.oldDamage[d]))
		cz.damage[d] = dmg

		// Tn is positive in tension; closing is not softened
		var (
			K  = cz.Stiffness
			Tn = dn.Scale(K)
			Ts [2]T
		)
		if dn.Value() > 0 {
			Tn = Tn.Scale(1 - dmg)
		}
		for k := range ds {
			Ts[k] = ds[k].Scale((1 - dmg) * K)
		}
		cz.normal[d] = Tn.Neg()
		cz.shear[d] = [2]T{Ts[0].Neg(), Ts[1].Neg()}
	}
	return
}

// Traction serves the force kernel with compression positive
func (cz *BilinearMixedModeCZM[T]) Traction(d types.DofObject) (normal T, tangential [2]T, ok bool) {
	if normal, ok = cz.normal[d]; ok {
		tangential = cz.shear[d]
	}
	return
}

func (cz *BilinearMixedModeCZM[T]) Damage(d types.DofObject) float64 { return cz.damage[d] }

// TimestepSetup commits the converged damage
func (cz *BilinearMixedModeCZM[T]) TimestepSetup() {
	cz.Gaps.TimestepSetup()
	for d, dmg := range cz.damage {
		cz.oldDamage[d] = dmg
	}
}
