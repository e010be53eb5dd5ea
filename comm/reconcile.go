package comm

import (
	"sort"

	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// Exchange configures a Reconcile pass. Resolve maps a communicated id back
// to a local dof and Combine merges two partial payloads.
type Exchange[P any] struct {
	Resolve  func(kind types.DofKind, id int) (types.DofObject, error)
	Combine  func(a, b P) P
	SendBack bool
}

// record is the wire form of one keyed payload
type record[P any] struct {
	Kind    types.DofKind
	ID      int
	Payload P
}

// Reconcile ships every entry of partial owned by another rank to its owner,
// where it is merged with Combine. On return partial holds the complete value
// of each owned dof this rank saw locally or received. With SendBack the
// contributors get the owner's total back in place of their partial entry,
// without it the shipped entries are removed. An id that does not resolve on
// the receiving rank fails the pass on every rank.
func Reconcile[P any](c *Comm, partial map[types.DofObject]P, x Exchange[P]) (err error) {
	var (
		outbound = make(map[int][]record[P])
		sent     []types.DofObject
	)
	for d, p := range partial {
		if d.Owner != c.rank {
			outbound[d.Owner] = append(outbound[d.Owner], record[P]{d.Kind, d.ID, p})
			sent = append(sent, d)
		}
	}
	for _, recs := range outbound {
		sortRecords(recs)
	}
	for _, d := range sent {
		delete(partial, d)
	}

	contributors := make(map[types.DofObject][]int)
	for _, env := range Push(c, outbound) {
		var d types.DofObject
		if d, err = resolveOwned(c, x, env.Payload.Kind, env.Payload.ID); err != nil {
			break
		}
		if cur, ok := partial[d]; ok {
			partial[d] = x.Combine(cur, env.Payload.Payload)
		} else {
			partial[d] = env.Payload.Payload
		}
		contributors[d] = append(contributors[d], env.From)
	}
	if err = AgreeError(c, err); err != nil || !x.SendBack {
		return
	}

	back := make(map[int][]record[P])
	for d, ranks := range contributors {
		for _, r := range ranks {
			back[r] = append(back[r], record[P]{d.Kind, d.ID, partial[d]})
		}
	}
	for _, recs := range back {
		sortRecords(recs)
	}
	for _, env := range Push(c, back) {
		var d types.DofObject
		if d, err = x.Resolve(env.Payload.Kind, env.Payload.ID); err != nil {
			break
		}
		partial[d] = env.Payload.Payload
	}
	return AgreeError(c, err)
}

func resolveOwned[P any](c *Comm, x Exchange[P], kind types.DofKind, id int) (d types.DofObject, err error) {
	if d, err = x.Resolve(kind, id); err != nil {
		return
	}
	if d.Owner != c.rank {
		err = utils.NewTopologyError("rank %d received %v which is owned by rank %d", c.rank, d, d.Owner)
	}
	return
}

func sortRecords[P any](recs []record[P]) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Kind != recs[j].Kind {
			return recs[i].Kind < recs[j].Kind
		}
		return recs[i].ID < recs[j].ID
	})
}

// SumFloat is the Combine for plain scalar payloads
func SumFloat(a, b float64) float64 { return a + b }
