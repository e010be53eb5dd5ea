package comm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

func TestPushAndCollectives(t *testing.T) {
	const np = 4
	w := NewWorld(np)
	err := w.Run(func(c *Comm) error {
		for round := 0; round < 3; round++ {
			me := c.Rank()
			inbound := Push(c, map[int][]int{
				(me + 1) % np: {10*me + round},
				(me + 2) % np: {10*me + round, -1},
			})
			// from rank me-2 (two values) and me-1 (one value), sorted by sender
			lo, hi := (me+np-2)%np, (me+np-1)%np
			if !assert.Equal(t, 3, len(inbound)) {
				continue
			}
			for _, env := range inbound {
				assert.True(t, env.From == lo || env.From == hi)
				assert.True(t, env.Payload == 10*env.From+round || env.Payload == -1)
			}
			for i := 1; i < len(inbound); i++ {
				assert.LessOrEqual(t, inbound[i-1].From, inbound[i].From)
			}
		}
		assert.Equal(t, []int{0, 1, 2, 3}, AllGather(c, c.Rank()))
		assert.Equal(t, 6., AllReduceSum(c, float64(c.Rank())))
		assert.Equal(t, 3., AllReduceMax(c, float64(c.Rank())))
		assert.Equal(t, 2, AllReduceMaxInt(c, c.Rank()%3))
		// nothing to send is still a valid exchange
		assert.Empty(t, Push[int](c, nil))
		return nil
	})
	assert.NoError(t, err)
}

func ownedByMod(np int) func(kind types.DofKind, id int) (types.DofObject, error) {
	return func(kind types.DofKind, id int) (types.DofObject, error) {
		return types.DofObject{Kind: kind, ID: id, Owner: id % np}, nil
	}
}

func TestReconcile(t *testing.T) {
	const (
		np    = 4
		ndofs = 8
	)
	for _, sendBack := range []bool{false, true} {
		var (
			mu      sync.Mutex
			results = make([]map[types.DofObject]float64, np)
		)
		err := NewWorld(np).Run(func(c *Comm) error {
			resolve := ownedByMod(np)
			partial := make(map[types.DofObject]float64)
			for id := 0; id < ndofs; id++ {
				d, _ := resolve(types.NodeDof, id)
				partial[d] = float64(c.Rank() + 1)
			}
			err := Reconcile(c, partial, Exchange[float64]{
				Resolve:  resolve,
				Combine:  SumFloat,
				SendBack: sendBack,
			})
			mu.Lock()
			results[c.Rank()] = partial
			mu.Unlock()
			return err
		})
		require.NoError(t, err)
		for rank, partial := range results {
			if sendBack {
				assert.Equal(t, ndofs, len(partial))
			} else {
				assert.Equal(t, ndofs/np, len(partial))
			}
			for d, v := range partial {
				assert.Equal(t, 10., v, "dof %v on rank %d", d, rank)
				if !sendBack {
					assert.Equal(t, rank, d.Owner)
				}
			}
		}
	}
}

func TestReconcileUnresolved(t *testing.T) {
	const np = 3
	errs := make([]error, np)
	_ = NewWorld(np).Run(func(c *Comm) error {
		resolve := ownedByMod(np)
		if c.Rank() == 1 {
			// rank 1 lost element 4
			resolve = func(kind types.DofKind, id int) (types.DofObject, error) {
				if id == 4 {
					return types.DofObject{}, utils.NewTopologyError("rank 1 cannot resolve %d", id)
				}
				return ownedByMod(np)(kind, id)
			}
		}
		partial := map[types.DofObject]float64{{Kind: types.ElemDof, ID: 4, Owner: 1}: 1}
		errs[c.Rank()] = Reconcile(c, partial, Exchange[float64]{Resolve: resolve, Combine: SumFloat})
		return errs[c.Rank()]
	})
	for rank, err := range errs {
		var te *utils.TopologyError
		assert.True(t, errors.As(err, &te), "rank %d: %v", rank, err)
	}
}
