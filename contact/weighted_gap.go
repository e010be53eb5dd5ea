package contact

import (
	"sort"

	"github.com/notargets/gocontact/ad"
	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
)

// LargeGap is the gap assigned to a quadrature point with no primary
// partner, so the dof it feeds reads as separated.
const LargeGap = 1e10

// WeightedGap is the normal gap integrated against a test function.
// Normalization is the integral of the test function alone.
type WeightedGap[T ad.Number[T]] struct {
	Value         T
	Normalization float64
}

// Physical converts the integrated gap back to a length
func (wg WeightedGap[T]) Physical() T {
	if wg.Normalization == 0 {
		return wg.Value
	}
	return wg.Value.Scale(1 / wg.Normalization)
}

// TangentialVelocity is the weighted relative tangential velocity of the
// secondary side, one component per tangent. The second is unused in 2D.
type TangentialVelocity[T ad.Number[T]] [2]T

// Quantity selects what the accumulator integrates beyond the normal gap
type Quantity uint8

const (
	WithTangentialVelocity Quantity = 1 << iota
	WithNormalVelocity              // gap rate for the dynamic persistency condition
	WithTangentialGap               // tangential displacement jump for cohesive laws
	WithJump                        // full jump vector in global coordinates
)

// GapData is everything integrated for one dof in a pass. It is also the
// payload of the reconciliation exchange.
type GapData[T ad.Number[T]] struct {
	Gap            WeightedGap[T]
	Velocity       TangentialVelocity[T]
	NormalVelocity T
	TangentialGap  [2]T
	Jump           ad.Vec[T]
}

func (a GapData[T]) plus(b GapData[T]) (c GapData[T]) {
	c.Gap.Value = a.Gap.Value.Add(b.Gap.Value)
	c.Gap.Normalization = a.Gap.Normalization + b.Gap.Normalization
	for k := 0; k < 2; k++ {
		c.Velocity[k] = a.Velocity[k].Add(b.Velocity[k])
		c.TangentialGap[k] = a.TangentialGap[k].Add(b.TangentialGap[k])
	}
	c.NormalVelocity = a.NormalVelocity.Add(b.NormalVelocity)
	c.Jump = a.Jump.Add(b.Jump)
	return
}

// GapProvider is the read only view the enforcement policies share, so the
// normal and frictional constraints classify contact from the same data.
type GapProvider[T ad.Number[T]] interface {
	Dofs() []types.DofObject
	Data(d types.DofObject) (GapData[T], bool)
	Gap(d types.DofObject) (WeightedGap[T], bool)
	OldGap(d types.DofObject) (float64, bool)
	Frame(d types.DofObject) mortar.NodalFrame
	Dim() int
}

// WeightedGapProvider integrates the gap and velocities over the mortar
// segments owned by this rank and reconciles them with the dof owners.
type WeightedGapProvider[T ad.Number[T]] struct {
	Segments   *mortar.SegmentMesh
	Quadrature *mortar.Quadrature
	Quantities Quantity
	// Comm and View are nil for a single process run
	Comm *comm.Comm
	View *mesh.LocalView
	// SendBack returns owner totals to contributing ranks
	SendBack bool

	indexer types.DofIndexer
	data    []GapData[T]
	dofs    []types.DofObject
	touched []bool
	active  []int
	sorted  []types.DofObject

	qp         PointData[T]
	qpGap      ad.Vec[T]
	qpVel      ad.Vec[T]
	qpUnpaired bool

	oldGap      map[types.DofObject]float64
	oldVelocity map[types.DofObject][2]float64
}

func NewWeightedGapProvider[T ad.Number[T]](sm *mortar.SegmentMesh, q *mortar.Quadrature,
	quantities Quantity) (p *WeightedGapProvider[T]) {
	p = &WeightedGapProvider[T]{
		Segments:    sm,
		Quadrature:  q,
		Quantities:  quantities,
		indexer:     sm.Geometry.Indexer(),
		oldGap:      make(map[types.DofObject]float64),
		oldVelocity: make(map[types.DofObject][2]float64),
	}
	n := p.indexer.Len()
	p.data = make([]GapData[T], n)
	p.dofs = make([]types.DofObject, n)
	p.touched = make([]bool, n)
	return
}

// Parallel attaches the provider to a rank of a World
func (p *WeightedGapProvider[T]) Parallel(c *comm.Comm, view *mesh.LocalView, sendBack bool) *WeightedGapProvider[T] {
	p.Comm, p.View, p.SendBack = c, view, sendBack
	return p
}

func (p *WeightedGapProvider[T]) Dim() int { return p.Segments.Geometry.Dim }

func (p *WeightedGapProvider[T]) rank() int {
	if p.Comm == nil {
		return 0
	}
	return p.Comm.Rank()
}

// Initialize clears the current state. It runs before any contribution of a pass.
func (p *WeightedGapProvider[T]) Initialize() {
	for _, i := range p.active {
		p.data[i] = GapData[T]{}
		p.touched[i] = false
	}
	p.active = p.active[:0]
	p.sorted = nil
}

// ComputeAtPoint forms the gap vector (primary minus secondary) and the
// relative velocity (secondary minus primary) at one quadrature point.
func (p *WeightedGapProvider[T]) ComputeAtPoint(pd PointData[T]) {
	p.qp = pd
	p.qpUnpaired = !pd.HasPrimary
	if p.qpUnpaired {
		p.qpGap, p.qpVel = ad.Vec[T]{}, ad.Vec[T]{}
		return
	}
	p.qpGap = pd.Primary.Sub(pd.Secondary)
	if p.Quantities&(WithTangentialVelocity|WithNormalVelocity) != 0 {
		p.qpVel = pd.SecondaryVel.Sub(pd.PrimaryVel)
	}
}

// AccumulateForTestFunction adds the projections weighted by test function i
// into the entry of d.
func (p *WeightedGapProvider[T]) AccumulateForTestFunction(i int, d types.DofObject) {
	idx := p.indexer.Index(d)
	if !p.touched[idx] {
		p.touched[idx] = true
		p.dofs[idx] = d
		p.active = append(p.active, idx)
	}
	var (
		entry  = &p.data[idx]
		frame  = p.Segments.DofFrame(d)
		weight = p.qp.Test[i] * p.qp.Weight
		nt     = p.Dim() - 1
	)
	entry.Gap.Normalization += weight
	if p.qpUnpaired {
		entry.Gap.Value = entry.Gap.Value.AddConst(LargeGap * weight)
		return
	}
	entry.Gap.Value = entry.Gap.Value.Add(p.qpGap.Dot(frame.Normal).Scale(weight))
	for k := 0; k < nt; k++ {
		if p.Quantities&WithTangentialVelocity != 0 {
			entry.Velocity[k] = entry.Velocity[k].Add(p.qpVel.Dot(frame.Tangents[k]).Scale(weight))
		}
		if p.Quantities&WithTangentialGap != 0 {
			entry.TangentialGap[k] = entry.TangentialGap[k].Add(p.qpGap.Dot(frame.Tangents[k]).Scale(weight))
		}
	}
	if p.Quantities&WithNormalVelocity != 0 {
		entry.NormalVelocity = entry.NormalVelocity.Add(p.qpVel.Dot(frame.Normal).Scale(-weight))
	}
	if p.Quantities&WithJump != 0 {
		entry.Jump = entry.Jump.Add(p.qpGap.Scale(weight))
	}
}

// Execute runs the quadrature loop over the segments this rank owns
func (p *WeightedGapProvider[T]) Execute(f Field[T]) {
	wantVel := p.Quantities&(WithTangentialVelocity|WithNormalVelocity) != 0
	for _, si := range p.Segments.LocalSegments(p.rank()) {
		seg := p.Segments.Segments[si]
		dofs := p.Quadrature.TestDofs(p.Segments, seg)
		for _, qp := range p.Quadrature.Points(p.Segments, seg) {
			p.ComputeAtPoint(Interpolate(f, seg, qp, wantVel))
			for i, d := range dofs {
				p.AccumulateForTestFunction(i, d)
			}
		}
	}
}

// Finalize reconciles the partial sums with the dof owners. Afterwards the
// provider holds complete values for its owned dofs and, with SendBack, for
// every dof it contributed to.
func (p *WeightedGapProvider[T]) Finalize() (err error) {
	if p.Comm != nil {
		partial := make(map[types.DofObject]GapData[T], len(p.active))
		for _, idx := range p.active {
			partial[p.dofs[idx]] = p.data[idx]
		}
		err = comm.Reconcile(p.Comm, partial, comm.Exchange[GapData[T]]{
			Resolve:  p.View.Resolve,
			Combine:  GapData[T].plus,
			SendBack: p.SendBack,
		})
		if err != nil {
			return
		}
		p.Initialize()
		for d, gd := range partial {
			idx := p.indexer.Index(d)
			p.touched[idx] = true
			p.dofs[idx] = d
			p.data[idx] = gd
			p.active = append(p.active, idx)
		}
	}
	p.sorted = make([]types.DofObject, 0, len(p.active))
	for _, idx := range p.active {
		p.sorted = append(p.sorted, p.dofs[idx])
	}
	sort.Slice(p.sorted, func(i, j int) bool {
		return p.indexer.Index(p.sorted[i]) < p.indexer.Index(p.sorted[j])
	})
	return
}

// Pass is Initialize, Execute and Finalize
func (p *WeightedGapProvider[T]) Pass(f Field[T]) error {
	p.Initialize()
	p.Execute(f)
	return p.Finalize()
}

// TimestepSetup copies the converged state into the old state maps. It is the
// only place old state changes.
func (p *WeightedGapProvider[T]) TimestepSetup() {
	p.oldGap = make(map[types.DofObject]float64, len(p.sorted))
	p.oldVelocity = make(map[types.DofObject][2]float64, len(p.sorted))
	for _, d := range p.sorted {
		gd := p.data[p.indexer.Index(d)]
		p.oldGap[d] = gd.Gap.Physical().Value()
		p.oldVelocity[d] = [2]float64{gd.Velocity[0].Value(), gd.Velocity[1].Value()}
	}
}

// Dofs lists the dofs with a complete entry, in dense index order
func (p *WeightedGapProvider[T]) Dofs() []types.DofObject { return p.sorted }

// Owned filters Dofs to those owned by this rank
func (p *WeightedGapProvider[T]) Owned() (dofs []types.DofObject) {
	for _, d := range p.sorted {
		if d.Owner == p.rank() {
			dofs = append(dofs, d)
		}
	}
	return
}

func (p *WeightedGapProvider[T]) Data(d types.DofObject) (gd GapData[T], ok bool) {
	idx := p.indexer.Index(d)
	if !p.touched[idx] {
		return
	}
	return p.data[idx], true
}

func (p *WeightedGapProvider[T]) Gap(d types.DofObject) (wg WeightedGap[T], ok bool) {
	var gd GapData[T]
	if gd, ok = p.Data(d); ok {
		wg = gd.Gap
	}
	return
}

func (p *WeightedGapProvider[T]) TangentialVelocity(d types.DofObject) (tv TangentialVelocity[T], ok bool) {
	var gd GapData[T]
	if gd, ok = p.Data(d); ok {
		tv = gd.Velocity
	}
	return
}

func (p *WeightedGapProvider[T]) OldGap(d types.DofObject) (g float64, ok bool) {
	g, ok = p.oldGap[d]
	return
}

func (p *WeightedGapProvider[T]) OldVelocity(d types.DofObject) (v [2]float64, ok bool) {
	v, ok = p.oldVelocity[d]
	return
}

func (p *WeightedGapProvider[T]) Frame(d types.DofObject) mortar.NodalFrame {
	return p.Segments.DofFrame(d)
}
