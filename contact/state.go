package contact

import (
	"fmt"
	"os"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocontact/types"
)

// DofState is the old state of one dof carried across a restart. Absent
// values read back as the defaults of a fresh run.
type DofState struct {
	Kind                  types.DofKind `json:"kind"`
	ID                    int           `json:"id"`
	Owner                 int           `json:"owner"`
	OldWeightedGap        *float64      `json:"old_weighted_gap,omitempty"`
	OldVelocity           [2]float64    `json:"old_velocity"`
	OldAccumulatedSlip    float64       `json:"old_accumulated_slip,omitempty"`
	OldTangentialTraction [2]float64    `json:"old_tangential_traction"`
	LagrangeMultiplier    float64       `json:"lagrange_multiplier,omitempty"`
	Penalty               float64       `json:"penalty,omitempty"`
	OldDamage             float64       `json:"old_damage,omitempty"`
}

func (ds *DofState) Dof() types.DofObject {
	return types.DofObject{Kind: ds.Kind, ID: ds.ID, Owner: ds.Owner}
}

// Checkpoint collects the old state of every stateful contact object
type Checkpoint struct {
	Step     int        `json:"step"`
	Time     float64    `json:"time"`
	Dt       float64    `json:"dt"`
	Solution []float64  `json:"solution,omitempty"`
	Dofs     []DofState `json:"dofs"`

	lookup map[types.DofObject]int
}

// Stateful objects write their old state into a checkpoint and read it back
type Stateful interface {
	SaveState(cp *Checkpoint)
	RestoreState(cp *Checkpoint)
}

// Entry returns the state of d, adding one when create is set
func (cp *Checkpoint) Entry(d types.DofObject, create bool) *DofState {
	if cp.lookup == nil {
		cp.lookup = make(map[types.DofObject]int, len(cp.Dofs))
		for i := range cp.Dofs {
			cp.lookup[cp.Dofs[i].Dof()] = i
		}
	}
	if i, ok := cp.lookup[d]; ok {
		return &cp.Dofs[i]
	}
	if !create {
		return nil
	}
	cp.Dofs = append(cp.Dofs, DofState{Kind: d.Kind, ID: d.ID, Owner: d.Owner})
	cp.lookup[d] = len(cp.Dofs) - 1
	return &cp.Dofs[len(cp.Dofs)-1]
}

func (cp *Checkpoint) Marshal() ([]byte, error) {
	sort.Slice(cp.Dofs, func(i, j int) bool {
		a, b := cp.Dofs[i], cp.Dofs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	cp.lookup = nil
	return yaml.Marshal(cp)
}

func UnmarshalCheckpoint(b []byte) (cp *Checkpoint, err error) {
	cp = &Checkpoint{}
	if err = yaml.Unmarshal(b, cp); err != nil {
		err = fmt.Errorf("reading checkpoint: %w", err)
	}
	return
}

func (cp *Checkpoint) Write(path string) (err error) {
	var b []byte
	if b, err = cp.Marshal(); err != nil {
		return
	}
	return os.WriteFile(path, b, 0644)
}

func ReadCheckpoint(path string) (cp *Checkpoint, err error) {
	var b []byte
	if b, err = os.ReadFile(path); err != nil {
		return
	}
	return UnmarshalCheckpoint(b)
}

func (p *WeightedGapProvider[T]) SaveState(cp *Checkpoint) {
	for d, g := range p.oldGap {
		e := cp.Entry(d, true)
		e.OldWeightedGap = &g
		e.OldVelocity = p.oldVelocity[d]
	}
}

func (p *WeightedGapProvider[T]) RestoreState(cp *Checkpoint) {
	p.oldGap = make(map[types.DofObject]float64)
	p.oldVelocity = make(map[types.DofObject][2]float64)
	for _, e := range cp.Dofs {
		if e.OldWeightedGap == nil {
			continue
		}
		p.oldGap[e.Dof()] = *e.OldWeightedGap
		p.oldVelocity[e.Dof()] = e.OldVelocity
	}
}

func (pc *PenaltyContact[T]) SaveState(cp *Checkpoint) {
	pc.Gaps.SaveState(cp)
	for d, t := range pc.oldTraction {
		cp.Entry(d, true).OldTangentialTraction = t
	}
	for d, s := range pc.oldAccumulatedSlip {
		cp.Entry(d, true).OldAccumulatedSlip = s
	}
	for d, l := range pc.lagrange {
		cp.Entry(d, true).LagrangeMultiplier = l
	}
	for d, k := range pc.penalty {
		cp.Entry(d, true).Penalty = k
	}
}

func (pc *PenaltyContact[T]) RestoreState(cp *Checkpoint) {
	pc.Gaps.RestoreState(cp)
	pc.lagrange = make(map[types.DofObject]float64)
	pc.penalty = make(map[types.DofObject]float64)
	pc.lagrangeSlip = make(map[types.DofObject][2]float64)
	pc.status = make(map[types.DofObject]SlipStatus)
	for _, e := range cp.Dofs {
		d := e.Dof()
		pc.oldTraction[d] = e.OldTangentialTraction
		pc.oldAccumulatedSlip[d] = e.OldAccumulatedSlip
		pc.accumulatedSlip[d] = e.OldAccumulatedSlip
		if e.LagrangeMultiplier != 0 {
			pc.lagrange[d] = e.LagrangeMultiplier
		}
		if e.Penalty > 0 {
			pc.penalty[d] = e.Penalty
		}
		pc.lagrangeSlip[d] = [2]float64{}
		pc.status[d] = Sticking
	}
}

func (cz *BilinearMixedModeCZM[T]) SaveState(cp *Checkpoint) {
	cz.Gaps.SaveState(cp)
	for d, dmg := range cz.oldDamage {
		cp.Entry(d, true).OldDamage = dmg
	}
}

func (cz *BilinearMixedModeCZM[T]) RestoreState(cp *Checkpoint) {
	cz.Gaps.RestoreState(cp)
	cz.oldDamage = make(map[types.DofObject]float64)
	cz.damage = make(map[types.DofObject]float64)
	for _, e := range cp.Dofs {
		if e.OldDamage > 0 {
			cz.oldDamage[e.Dof()] = e.OldDamage
			cz.damage[e.Dof()] = e.OldDamage
		}
	}
}
