package ContactPatch

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/InputParameters"
	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/contact"
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

const (
	upperBoundaryOffset = 10
	primaryBoundary     = 2                   // top of the lower block
	secondaryBoundary   = upperBoundaryOffset // bottom of the upper block
)

// The contact patch is two stacked blocks, the lower one of height width/2
// resting on its foundation and the upper one, initially InitialGap above
// it, dragged by its foundation towards the prescribed load. The bottom of
// the upper block is the secondary (multiplier) surface of the mortar
// interface. The segments are built once on the reference configuration,
// which limits the patch to small sliding.
type Patch struct {
	Title               string
	Model               types.ContactModel
	Formulation         types.Formulation
	NCP                 types.NCPType
	NumRanks            int
	FinalTime, Dt       float64
	MinDt               float64
	NewtonTolerance     float64
	MaxNewtonIterations int
	MaxALIterations     int
	Checkpoint, Restart string
	Verbose             bool
	// Load is the prescribed displacement of the upper block at time t
	Load func(t float64) r3.Vec

	Mesh       *mesh.Mesh
	Segments   *mortar.SegmentMesh
	Quadrature *mortar.Quadrature
	Layout     *Layout
	Foundation *Foundation
	// DeformationGradient rotates the cohesive frames, it is nil for the
	// other models
	DeformationGradient func(d types.DofObject, u []r3.Vec) mat.Matrix
	// Names of the generated objects, used in the log
	ProviderName, ConstraintName string

	ip *InputParameters.ContactParameters
}

func NewPatch(ip *InputParameters.ContactParameters) (p *Patch, err error) {
	ip.SetDefaults()
	if err = ip.Validate(); err != nil {
		return
	}
	p = &Patch{
		Title:               ip.Title,
		NumRanks:            ip.NumRanks,
		FinalTime:           ip.FinalTime,
		Dt:                  ip.Dt,
		MinDt:               ip.MinDt,
		NewtonTolerance:     ip.NewtonTolerance,
		MaxNewtonIterations: ip.MaxNewtonIterations,
		MaxALIterations:     ip.MaxALIterations,
		Checkpoint:          ip.Checkpoint,
		Restart:             ip.Restart,
		ip:                  ip,
	}
	// Validate has resolved every name already
	p.Model, _ = ip.ContactModel()
	p.Formulation, _ = ip.ContactFormulation()
	p.NCP, _ = ip.NCP()
	coord, _ := ip.Coord()
	basis, _ := ip.TestBasis()

	var (
		w = ip.Width
		h = 0.5 * w
		g = ip.InitialGap
	)
	p.Mesh = mesh.NewQuadMesh(ip.LowerElements[0], ip.LowerElements[1], 0, 0, w, h)
	firstUpper := p.Mesh.NumVertices
	p.Mesh.Append(mesh.NewQuadMesh(ip.UpperElements[0], ip.UpperElements[1], 0, h+g, w, 2*h+g),
		upperBoundaryOffset)
	if ip.NumRanks > 1 {
		if err = p.Mesh.Partition(ip.NumRanks); err != nil {
			return
		}
	}
	if p.Segments, err = mortar.Generate(p.Mesh, secondaryBoundary, primaryBoundary, false); err != nil {
		return
	}
	p.Quadrature = mortar.NewQuadrature(ip.QuadratureOrder, basis, coord)
	p.Layout = NewLayout(p.Segments, p.Quadrature, p.multipliersPerDof())
	p.Foundation = NewFoundation(p.Mesh, firstUpper, ip.FoundationStiffness, ip.EdgeStiffness, p.Layout)
	if p.Model == types.Cohesive {
		var ik *InterfaceKinematics
		if ik, err = NewInterfaceKinematics(p.Segments, p.Quadrature); err != nil {
			return
		}
		p.DeformationGradient = ik.DeformationGradient
	}
	p.Load = func(t float64) r3.Vec {
		s := t / p.FinalTime
		return r3.Vec{X: ip.Slide * s, Y: -ip.Indentation * s}
	}

	var (
		names = InputParameters.NameRegistry{}
		model = strings.ToLower(p.Model.String())
	)
	p.ProviderName = names.Next("weighted_gap")
	switch {
	case p.Model == types.Cohesive:
		p.ConstraintName = names.Next("czm")
	case p.Formulation == types.LagrangeMultiplier:
		p.ConstraintName = names.Next("mortar_" + model)
	default:
		p.ConstraintName = names.Next(strings.ToLower(p.Formulation.String()) + "_" + model)
	}
	return
}

// multipliersPerDof is zero when the interface force comes from a
// constitutive law instead of multiplier unknowns
func (p *Patch) multipliersPerDof() int {
	switch {
	case p.Model == types.Cohesive || p.Formulation != types.LagrangeMultiplier:
		return 0
	case p.Model == types.Frictionless:
		return 1
	default:
		return p.Mesh.Dim
	}
}

// StepRecord is the converged state of one time step, per secondary test dof id
type StepRecord struct {
	Step             int
	Time, Dt         float64
	NewtonIterations int
	ALIterations     int
	Pressure         map[int]float64 // normal traction, positive in compression
	Tangential       map[int]float64
	Gap              map[int]float64 // weighted gap over the test function integral
	Damage           map[int]float64
	Active           int // dofs carrying a compressive pressure
}

type Result struct {
	Steps []StepRecord
	Cuts  int
	X     []float64
}

func (res *Result) Last() StepRecord { return res.Steps[len(res.Steps)-1] }

// Run solves the patch up to FinalTime on NumRanks ranks. The result holds
// the converged steps even when an error ends the run early.
func (p *Patch) Run() (res *Result, err error) {
	res = &Result{}
	p.PrintInitialization()
	start := time.Now()
	err = comm.NewWorld(p.NumRanks).Run(func(c *comm.Comm) error {
		rk, err := p.newRank(c)
		if err != nil {
			return err
		}
		return rk.solve(res)
	})
	p.PrintFinal(time.Since(start), res)
	return
}

// rank is what one rank carries through the run. Exactly one of the
// enforcement groups (multipliers, penalty, cohesive) is set.
type rank struct {
	*Patch
	c     *comm.Comm
	owned []types.DofObject
	gaps  *contact.WeightedGapProvider[ad.Dual]
	// nodal displacements of the iterate being evaluated
	u []r3.Vec

	lm       *contact.NormalLM[ad.Dual]
	normal   contact.NormalConstraint[ad.Dual]
	dynamic  *contact.DynamicNormalLM[ad.Dual]
	friction *contact.FrictionalLM[ad.Dual]
	glued    *contact.GluedLM[ad.Dual]

	penalty *contact.PenaltyContact[ad.Dual]
	czm     *contact.BilinearMixedModeCZM[ad.Dual]

	stateful contact.Stateful
}

func (p *Patch) newRank(c *comm.Comm) (r *rank, err error) {
	var (
		ip       = p.ip
		quant    = contact.WithTangentialVelocity
		sendBack = p.Layout.PerDof == 0
	)
	r = &rank{Patch: p, c: c, owned: p.Layout.Owned(c.Rank())}
	if p.Model == types.Cohesive {
		quant = contact.WithJump
	}
	if ip.Dynamic {
		quant |= contact.WithNormalVelocity
	}
	r.gaps = contact.NewWeightedGapProvider[ad.Dual](p.Segments, p.Quadrature, quant).
		Parallel(c, p.Mesh.LocalView(c.Rank()), sendBack)
	switch {
	case p.Model == types.Cohesive:
		cz := contact.NewBilinearMixedModeCZM(r.gaps)
		cz.NormalStrength, cz.ShearStrength = ip.NormalStrength, ip.ShearStrength
		cz.GIc, cz.GIIc = ip.GIc, ip.GIIc
		cz.Stiffness = ip.CohesiveStiffness
		cz.BKExponent = ip.BKExponent
		cz.Viscosity = ip.Viscosity
		if p.DeformationGradient != nil {
			cz.DeformationGradient = func(d types.DofObject) mat.Matrix {
				return p.DeformationGradient(d, r.u)
			}
		}
		if err = cz.Validate(); err != nil {
			return
		}
		r.czm, r.stateful = cz, cz
	case p.Formulation != types.LagrangeMultiplier:
		pc := contact.NewPenaltyContact(r.gaps, ip.Penalty)
		pc.PenaltyFriction = ip.PenaltyFriction
		pc.NormalizePenalty = ip.NormalizePenalty
		if p.Model == types.Coulomb {
			pc.Friction = contact.ConstantFriction(ip.FrictionCoefficient)
		}
		if p.Formulation == types.AugmentedLagrange {
			pc.Augmented = true
			pc.PenaltyMultiplier = ip.PenaltyMultiplier
			pc.MaxPenalty = ip.MaxPenaltyMultiplier * ip.Penalty
			pc.PenetrationTolerance = ip.PenetrationTolerance
			pc.SlipTolerance = ip.SlipTolerance
			pc.FrictionalForceTolerance = ip.FrictionalForceTolerance
		}
		r.penalty, r.stateful = pc, pc
	default:
		r.lm = &contact.NormalLM[ad.Dual]{Gaps: r.gaps, C: ip.C, NormalizeC: ip.NormalizeC, NCP: p.NCP}
		r.normal = r.lm
		switch {
		case p.Model == types.Glued:
			r.glued = &contact.GluedLM[ad.Dual]{NormalLM: *r.lm}
		case ip.Dynamic:
			r.dynamic = contact.NewDynamicNormalLM(r.gaps, *r.lm, ip.NewmarkBeta, ip.NewmarkGamma,
				ip.CaptureTolerance)
			r.normal = r.dynamic
		}
		if p.Model == types.Coulomb {
			r.friction = &contact.FrictionalLM[ad.Dual]{
				Normal:  r.lm,
				Mu:      contact.ConstantFriction(ip.FrictionCoefficient),
				Ct:      ip.CTangential,
				Epsilon: ip.FrictionEpsilon,
			}
		}
		r.stateful = r.gaps
	}
	return
}

func (r *rank) root() bool { return r.c.Rank() == 0 }

func (r *rank) setDt(dt float64) {
	switch {
	case r.czm != nil:
		r.czm.Dt = dt
	case r.penalty != nil:
		r.penalty.Dt = dt
	}
	if r.friction != nil {
		r.friction.Dt = dt
	}
	if r.glued != nil {
		r.glued.Dt = dt
	}
	if r.dynamic != nil {
		r.dynamic.Dt = dt
	}
}

func nodal(l *Layout, x []float64) (u []r3.Vec) {
	u = make([]r3.Vec, l.NumNodes)
	for n := range u {
		u[n] = r3.Vec{X: x[l.Displacement(n, 0)], Y: x[l.Displacement(n, 1)]}
	}
	return
}

// evaluate integrates the interface on the segments of this rank and adds
// the constraint rows of the dofs it owns
func (r *rank) evaluate(x []float64, uOld []r3.Vec, dt float64) (sink *contact.SparseSink, err error) {
	var (
		l     = r.Layout
		field = &contact.NodalField[ad.Dual]{
			Ref:           r.Mesh,
			Dofs:          l,
			U:             nodal(l, x),
			UOld:          uOld,
			VelocityScale: 1 / dt,
		}
	)
	r.u = field.U
	if err = r.gaps.Pass(field); err != nil {
		return
	}
	sink = contact.NewSparseSink(l.Len(), true)
	switch {
	case r.czm != nil:
		if err = comm.AgreeError(r.c, r.czm.Compute()); err != nil {
			return
		}
		contact.AssembleForces[ad.Dual](r.Segments, r.Quadrature, r.c.Rank(), r.czm, l, sink)
	case r.penalty != nil:
		r.penalty.Compute()
		contact.AssembleForces[ad.Dual](r.Segments, r.Quadrature, r.c.Rank(), r.penalty, l, sink)
	default:
		lm := contact.Multipliers[ad.Dual]{X: x, Dofs: l}
		if r.glued != nil {
			r.glued.Enforce(r.owned, lm, sink)
		} else {
			contact.EnforceNormal[ad.Dual](r.normal, r.owned, lm, sink)
		}
		if r.friction != nil {
			if err = comm.AgreeError(r.c, r.friction.Enforce(r.owned, lm, sink)); err != nil {
				return
			}
		}
		contact.AssembleForces[ad.Dual](r.Segments, r.Quadrature, r.c.Rank(), lm, l, sink)
	}
	return
}

// assemble sums the contributions of all ranks in rank order and adds the
// foundation, so every rank holds the same system
func (r *rank) assemble(local *contact.SparseSink, x []float64, load r3.Vec) (res []float64, J *mat.Dense) {
	n := r.Layout.Len()
	res = make([]float64, n)
	J = mat.NewDense(n, n, nil)
	for _, s := range comm.AllGather(r.c, local) {
		floats.Add(res, s.Residual)
		s.Jacobian.DoNonZero(func(i, j int, v float64) { J.Set(i, j, J.At(i, j)+v) })
	}
	r.Foundation.AddResidual(x, load, res)
	r.Foundation.AddJacobian(J)
	return
}

// newton solves the step in place. Failing to converge is recoverable.
func (r *rank) newton(x []float64, uOld []r3.Vec, load r3.Vec, dt float64) (its int, err error) {
	dx := mat.NewVecDense(len(x), nil)
	for its = 0; ; its++ {
		var local *contact.SparseSink
		if local, err = r.evaluate(x, uOld, dt); err != nil {
			return
		}
		res, J := r.assemble(local, x, load)
		norm := floats.Norm(res, 2)
		if r.Verbose && r.root() {
			log.Printf("%s: Newton %3d |R| = %11.4e\n", r.ConstraintName, its, norm)
		}
		switch {
		case math.IsNaN(norm) || math.IsInf(norm, 0):
			err = utils.NewRecoverableError("non-finite residual at Newton iteration %d", its)
			return
		case norm < r.NewtonTolerance:
			return
		case its >= r.MaxNewtonIterations:
			err = utils.NewRecoverableError("Newton did not converge in %d iterations, |R| = %g", its, norm)
			return
		}
		var lu mat.LU
		lu.Factorize(J)
		if err = lu.SolveVecTo(dx, false, mat.NewVecDense(len(res), res)); err != nil {
			err = utils.NewRecoverableError("Newton iteration %d: %v", its, err)
			return
		}
		floats.Sub(x, dx.RawVector().Data)
	}
}

// step advances from t by dt. The augmented Lagrange formulation wraps the
// Newton solve in Uzawa iterations on the multipliers and penalties.
func (r *rank) step(x []float64, uOld []r3.Vec, t, dt float64) (rec StepRecord, err error) {
	r.setDt(dt)
	load := r.Load(t + dt)
	rec = StepRecord{Time: t + dt, Dt: dt}
	for {
		var its int
		its, err = r.newton(x, uOld, load, dt)
		rec.NewtonIterations += its
		rec.ALIterations++
		if err != nil || r.penalty == nil || !r.penalty.Augmented {
			return
		}
		if r.penalty.Converged(r.c) == contact.ALConverged {
			return
		}
		if rec.ALIterations >= r.MaxALIterations {
			err = utils.NewRecoverableError("augmented Lagrange did not converge in %d iterations",
				rec.ALIterations)
			return
		}
		r.penalty.UpdateLagrangeMultipliers()
	}
}

func (r *rank) timestepSetup() {
	switch {
	case r.czm != nil:
		r.czm.TimestepSetup()
	case r.penalty != nil:
		r.penalty.TimestepSetup()
	default:
		r.gaps.TimestepSetup()
		if r.dynamic != nil {
			r.dynamic.TimestepSetup()
		}
	}
}

// snapshot is the local state a failed step is rolled back to
func (r *rank) snapshot(x []float64) (cp *contact.Checkpoint) {
	cp = &contact.Checkpoint{Solution: append([]float64(nil), x...)}
	r.stateful.SaveState(cp)
	return
}

func (r *rank) solve(res *Result) (err error) {
	var (
		l    = r.Layout
		x    = make([]float64, l.Len())
		t    float64
		dt   = r.Dt
		step int
	)
	if r.Restart != "" {
		var cp *contact.Checkpoint
		if cp, err = contact.ReadCheckpoint(r.Restart); err != nil {
			return
		}
		if len(cp.Solution) != l.Len() {
			return utils.NewConfigError("restart", "checkpoint holds %d unknowns, the problem has %d",
				len(cp.Solution), l.Len())
		}
		copy(x, cp.Solution)
		t, dt, step = cp.Time, cp.Dt, cp.Step
		r.stateful.RestoreState(cp)
		if r.root() {
			log.Printf("%s: restarted from %s at step %d, t = %g\n", r.ConstraintName, r.Restart, step, t)
		}
	}
	uOld := nodal(l, x)
	for r.FinalTime-t > 1e-12*r.FinalTime {
		dt = math.Min(dt, r.FinalTime-t)
		var (
			saved = r.snapshot(x)
			rec   StepRecord
		)
		if rec, err = r.step(x, uOld, t, dt); err != nil {
			if !utils.IsRecoverable(err) {
				return
			}
			copy(x, saved.Solution)
			r.stateful.RestoreState(saved)
			if dt/2 < r.MinDt {
				return fmt.Errorf("step %d at t = %g cannot be cut below dtmin = %g: %w", step+1, t, r.MinDt, err)
			}
			dt /= 2
			if r.root() {
				res.Cuts++
				log.Printf("%s: %v, cutting the time step to %g\n", r.ConstraintName, err, dt)
			}
			continue
		}
		step++
		t += dt
		rec.Step = step
		r.timestepSetup()
		r.record(&rec, x)
		uOld = nodal(l, x)
		dt = math.Min(2*dt, r.Dt)
		if r.root() {
			res.Steps = append(res.Steps, rec)
			res.X = append(res.X[:0], x...)
			r.PrintUpdate(rec)
		}
		if r.Checkpoint != "" {
			if err = r.writeCheckpoint(step, t, dt, x); err != nil {
				return
			}
		}
	}
	return
}

// dofRecord is one rank's report on a dof it owns
type dofRecord struct {
	ID                                int
	Pressure, Tangential, Gap, Damage float64
}

func (r *rank) record(rec *StepRecord, x []float64) {
	var (
		l    = r.Layout
		mine = make([]dofRecord, 0, len(r.owned))
	)
	for _, d := range r.owned {
		dr := dofRecord{ID: d.ID, Gap: contact.LargeGap}
		if wg, ok := r.gaps.Gap(d); ok {
			dr.Gap = wg.Physical().Value()
		}
		switch {
		case r.czm != nil:
			normal, tangential, _ := r.czm.Traction(d)
			dr.Pressure, dr.Tangential = normal.Value(), tangential[0].Value()
			dr.Damage = r.czm.Damage(d)
		case r.penalty != nil:
			dr.Pressure = r.penalty.Pressure(d)
			dr.Tangential = r.penalty.TangentialTraction(d)[0]
		default:
			dr.Pressure = x[l.Multiplier(d, 0)]
			if l.PerDof > 1 {
				dr.Tangential = x[l.Multiplier(d, 1)]
			}
		}
		mine = append(mine, dr)
	}
	all := comm.AllGather(r.c, mine)
	if !r.root() {
		return
	}
	rec.Pressure = make(map[int]float64)
	rec.Tangential = make(map[int]float64)
	rec.Gap = make(map[int]float64)
	if r.czm != nil {
		rec.Damage = make(map[int]float64)
	}
	for _, recs := range all {
		for _, dr := range recs {
			rec.Pressure[dr.ID] = dr.Pressure
			rec.Tangential[dr.ID] = dr.Tangential
			rec.Gap[dr.ID] = dr.Gap
			if rec.Damage != nil {
				rec.Damage[dr.ID] = dr.Damage
			}
			if dr.Pressure > 0 {
				rec.Active++
			}
		}
	}
}

// writeCheckpoint merges the old state of every rank, taking each dof from
// its owner, and writes it from rank 0
func (r *rank) writeCheckpoint(step int, t, dt float64, x []float64) (err error) {
	local := &contact.Checkpoint{}
	r.stateful.SaveState(local)
	all := comm.AllGather(r.c, local)
	if r.root() {
		cp := &contact.Checkpoint{Step: step, Time: t, Dt: dt, Solution: append([]float64(nil), x...)}
		for rk, part := range all {
			for _, e := range part.Dofs {
				if e.Owner == rk {
					*cp.Entry(e.Dof(), true) = e
				}
			}
		}
		err = cp.Write(r.Checkpoint)
	}
	return comm.AgreeError(r.c, err)
}
