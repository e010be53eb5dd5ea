package contact

import (
	"log"
	"math"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/types"
)

// SlipStatus is the frictional state of a penalty dof after the last update
type SlipStatus uint8

const (
	Sticking SlipStatus = iota
	Slipping
)

// ALStatus is the outcome of an augmented Lagrange convergence check
type ALStatus int

const (
	ALConverged        ALStatus = iota
	ALPenetration               // penetration above the tolerance
	ALIncrementalSlip           // a sticking dof slipped more than the tolerance
	ALFrictionCapacity          // a frictional force exceeds its capacity
)

func (s ALStatus) String() string {
	return [...]string{"converged", "penetration not satisfied",
		"tangential sticking not satisfied", "tangential sliding not satisfied"}[s]
}

// PenaltyContact turns the reconciled weighted gaps into nodal pressures
// p = max(0, lambda - k*g) and, with friction, into tangential tractions by a
// return map against the Coulomb cone. lambda is the augmented Lagrange
// multiplier and stays zero for a pure penalty run. The provider must send
// totals back because every rank integrating a segment needs the pressure.
type PenaltyContact[T ad.Number[T]] struct {
	Gaps             *WeightedGapProvider[T]
	Penalty          float64
	PenaltyFriction  float64
	NormalizePenalty bool
	Friction         Friction
	Dt               float64
	Epsilon          float64

	Augmented                bool
	PenaltyMultiplier        float64
	MaxPenalty               float64
	PenetrationTolerance     float64
	SlipTolerance            float64
	FrictionalForceTolerance float64

	lagrange     map[types.DofObject]float64
	lagrangeSlip map[types.DofObject][2]float64
	penalty      map[types.DofObject]float64
	status       map[types.DofObject]SlipStatus

	oldTraction        map[types.DofObject][2]float64
	accumulatedSlip    map[types.DofObject]float64
	oldAccumulatedSlip map[types.DofObject]float64

	pressure      map[types.DofObject]T
	traction      map[types.DofObject][2]T
	slipIncrement map[types.DofObject][2]float64
}

func NewPenaltyContact[T ad.Number[T]](gaps *WeightedGapProvider[T], penalty float64) *PenaltyContact[T] {
	return &PenaltyContact[T]{
		Gaps:               gaps,
		Penalty:            penalty,
		PenaltyMultiplier:  1,
		lagrange:           make(map[types.DofObject]float64),
		lagrangeSlip:       make(map[types.DofObject][2]float64),
		penalty:            make(map[types.DofObject]float64),
		status:             make(map[types.DofObject]SlipStatus),
		oldTraction:        make(map[types.DofObject][2]float64),
		accumulatedSlip:    make(map[types.DofObject]float64),
		oldAccumulatedSlip: make(map[types.DofObject]float64),
	}
}

func (pc *PenaltyContact[T]) dofPenalty(d types.DofObject) float64 {
	if k, ok := pc.penalty[d]; ok {
		return k
	}
	return pc.Penalty
}

func (pc *PenaltyContact[T]) frictionPenalty() float64 {
	if pc.PenaltyFriction > 0 {
		return pc.PenaltyFriction
	}
	return pc.Penalty
}

// gapOf is the gap the penalty acts on, the physical gap when normalized
func (pc *PenaltyContact[T]) gapOf(gd GapData[T]) (g T, norm float64) {
	norm = 1
	if pc.NormalizePenalty && gd.Gap.Normalization > 0 {
		norm = gd.Gap.Normalization
	}
	return gd.Gap.Value.Scale(1 / norm), norm
}

// Compute evaluates pressures and tractions for every dof of the provider.
// It runs after the provider's Finalize in each residual evaluation.
func (pc *PenaltyContact[T]) Compute() {
	var (
		nt = pc.Gaps.Dim() - 1
		kt = pc.frictionPenalty()
	)
	pc.pressure = make(map[types.DofObject]T)
	pc.traction = make(map[types.DofObject][2]T)
	pc.slipIncrement = make(map[types.DofObject][2]float64)
	for _, d := range pc.Gaps.Dofs() {
		gd, _ := pc.Gaps.Data(d)
		g, norm := pc.gapOf(gd)
		p := ad.MaxConst(g.Scale(-pc.dofPenalty(d)).AddConst(pc.lagrange[d]), 0)
		pc.pressure[d] = p
		if pc.Friction == nil {
			continue
		}
		var (
			old, lslip = pc.oldTraction[d], pc.lagrangeSlip[d]
			trial      [2]T
			inc        [2]float64
			incMag     float64
		)
		for k := 0; k < nt; k++ {
			ds := gd.Velocity[k].Scale(pc.Dt / norm)
			inc[k] = ds.Value()
			incMag += inc[k] * inc[k]
			trial[k] = ds.Scale(kt).AddConst(old[k] + lslip[k])
		}
		incMag = math.Sqrt(incMag)
		pc.slipIncrement[d] = inc
		pc.accumulatedSlip[d] = pc.oldAccumulatedSlip[d] + incMag

		var traction [2]T
		if p.Value() > 0 {
			mu := pc.Friction.Coefficient(p.Value(), incMag/math.Max(pc.Dt, math.SmallestNonzeroFloat64))
			capacity := p.Scale(mu)
			var mag T
			if nt == 1 {
				mag = ad.Abs(trial[0])
			} else {
				mag = ad.Norm(pc.epsilon(), trial[0], trial[1])
			}
			if mag.Value() > capacity.Value() {
				for k := 0; k < nt; k++ {
					traction[k] = trial[k].Mul(capacity).Div(mag)
				}
			} else {
				traction = trial
			}
		}
		pc.traction[d] = traction
	}
}

func (pc *PenaltyContact[T]) epsilon() float64 {
	if pc.Epsilon > 0 {
		return pc.Epsilon
	}
	return DefaultNCPEpsilon
}

// Traction serves the force kernel
func (pc *PenaltyContact[T]) Traction(d types.DofObject) (normal T, tangential [2]T, ok bool) {
	if normal, ok = pc.pressure[d]; ok {
		tangential = pc.traction[d]
	}
	return
}

func (pc *PenaltyContact[T]) Pressure(d types.DofObject) float64 {
	if p, ok := pc.pressure[d]; ok {
		return p.Value()
	}
	return 0
}

func (pc *PenaltyContact[T]) TangentialTraction(d types.DofObject) (t [2]float64) {
	if tr, ok := pc.traction[d]; ok {
		t = [2]float64{tr[0].Value(), tr[1].Value()}
	}
	return
}

func (pc *PenaltyContact[T]) AccumulatedSlip(d types.DofObject) float64 {
	return pc.accumulatedSlip[d]
}

// UpdateLagrangeMultipliers is the outer augmented Lagrange update, run after
// an inner Newton solve converged. The normal multiplier takes the current
// pressure, the penalty of a dof still penetrating beyond the tolerance grows
// by PenaltyMultiplier up to MaxPenalty, and the slip multiplier either
// accumulates the stick increment or is returned to the cone.
func (pc *PenaltyContact[T]) UpdateLagrangeMultipliers() {
	var (
		nt = pc.Gaps.Dim() - 1
		kt = pc.frictionPenalty()
	)
	for _, d := range pc.Gaps.Dofs() {
		gd, _ := pc.Gaps.Data(d)
		g, _ := pc.gapOf(gd)
		k := pc.dofPenalty(d)
		lambda := math.Max(0, pc.lagrange[d]-k*g.Value())
		pc.lagrange[d] = lambda
		if g.Value() < -pc.PenetrationTolerance && pc.PenaltyMultiplier > 1 {
			k *= pc.PenaltyMultiplier
			if pc.MaxPenalty > 0 {
				k = math.Min(k, pc.MaxPenalty)
			}
			pc.penalty[d] = k
		}
		if pc.Friction == nil || lambda <= 0 {
			continue
		}
		var (
			inc, old = pc.slipIncrement[d], pc.oldTraction[d]
			lslip    = pc.lagrangeSlip[d]
			ct       [2]float64
			mag      float64
		)
		for i := 0; i < nt; i++ {
			ct[i] = lslip[i] + kt*inc[i] + old[i]
			mag += ct[i] * ct[i]
		}
		mag = math.Sqrt(mag)
		capacity := pc.Friction.Coefficient(lambda, 0) * lambda
		if mag > capacity*(1+pc.FrictionalForceTolerance) {
			for i := 0; i < nt; i++ {
				lslip[i] = -old[i] + capacity*ct[i]/mag
			}
			pc.status[d] = Slipping
		} else {
			for i := 0; i < nt; i++ {
				lslip[i] += kt * inc[i]
			}
			pc.status[d] = Sticking
		}
		pc.lagrangeSlip[d] = lslip
	}
}

// Converged checks the augmented Lagrange tolerances on the owned dofs and
// agrees on the worst status across ranks.
func (pc *PenaltyContact[T]) Converged(c *comm.Comm) (status ALStatus) {
	nt := pc.Gaps.Dim() - 1
	for _, d := range pc.Gaps.Owned() {
		p := pc.Pressure(d)
		if p <= 0 {
			continue
		}
		gd, _ := pc.Gaps.Data(d)
		g, _ := pc.gapOf(gd)
		if math.Abs(g.Value()) > pc.PenetrationTolerance {
			status = ALPenetration
			break
		}
		if pc.Friction == nil {
			continue
		}
		var tanMag, incMag float64
		t, inc := pc.TangentialTraction(d), pc.slipIncrement[d]
		for k := 0; k < nt; k++ {
			tanMag += t[k] * t[k]
			incMag += inc[k] * inc[k]
		}
		tanMag, incMag = math.Sqrt(tanMag), math.Sqrt(incMag)
		capacity := pc.Friction.Coefficient(p, 0) * p
		if tanMag < capacity && pc.status[d] == Sticking && incMag > pc.SlipTolerance {
			status = ALIncrementalSlip
			break
		}
		if tanMag > (1+pc.FrictionalForceTolerance)*(capacity+pc.FrictionalForceTolerance) {
			status = ALFrictionCapacity
			break
		}
	}
	if c != nil {
		status = ALStatus(comm.AllReduceMaxInt(c, int(status)))
	}
	if status != ALConverged {
		log.Printf("augmented Lagrange contact: %s\n", status)
	}
	return
}

// TimestepSetup stores the converged tangential state and restarts the slip
// multipliers in the sticking state. A dof out of contact keeps no traction,
// so it regains contact from a zero trial.
func (pc *PenaltyContact[T]) TimestepSetup() {
	pc.Gaps.TimestepSetup()
	current := make(map[types.DofObject]bool)
	for _, d := range pc.Gaps.Dofs() {
		current[d] = true
		if pc.Pressure(d) > 0 {
			pc.oldTraction[d] = pc.TangentialTraction(d)
		} else {
			pc.oldTraction[d] = [2]float64{}
		}
		pc.oldAccumulatedSlip[d] = pc.accumulatedSlip[d]
		pc.lagrangeSlip[d] = [2]float64{}
		pc.status[d] = Sticking
	}
	for d := range pc.oldTraction {
		if !current[d] {
			delete(pc.oldTraction, d)
		}
	}
}

// Owned returns this rank's dofs of the provider
func (pc *PenaltyContact[T]) Owned() []types.DofObject { return pc.Gaps.Owned() }
