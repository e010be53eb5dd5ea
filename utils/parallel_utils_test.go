package utils

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{ // Test PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				maxK := pm.GetBucketDimension(np)
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Test inverted bucket lookup - find bucket that contains index (efficiently)
		for maxIndex := 10; maxIndex < 500; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			for k := 0; k < maxIndex; k++ {
				tryCount, bn, min, max := pm.getBucketWithTryCount(k)
				mmin, mmax := pm.GetBucketRange(bn)
				assert.True(t, k >= min && k < max && min == mmin && max == mmax && tryCount <= 1)
			}
		}
	}
	{ // Out of range lookups report no bucket
		pm := NewPartitionMap(4, 10)
		bn, _, _ := pm.GetBucket(10)
		assert.Equal(t, -1, bn)
		bn, _, _ = pm.GetBucket(-1)
		assert.Equal(t, -1, bn)
	}
}

func TestMailBox(t *testing.T) {
	const NP = 4
	var (
		mb       = NewMailBox[int](NP)
		barrier  = NewBarrier(NP)
		wg       sync.WaitGroup
		received = make([][]int, NP)
	)
	for round := 0; round < 3; round++ {
		for np := 0; np < NP; np++ {
			wg.Add(1)
			go func(np int) {
				defer wg.Done()
				// Every rank sends its id to the next rank only
				mb.PostMessage(np, (np+1)%NP, np+10*round)
				mb.DeliverMyMessages(np)
				barrier.Wait()
				mb.ReceiveMyMessages(np)
				received[np] = append([]int{}, mb.ReceiveMsgQs[np].Cells()...)
				barrier.Wait()
				mb.ClearMyMessages(np)
			}(np)
		}
		wg.Wait()
		for np := 0; np < NP; np++ {
			from := (np + NP - 1) % NP
			assert.Equal(t, []int{from + 10*round}, received[np],
				fmt.Sprintf("round %d rank %d", round, np))
		}
	}
}

func TestErrors(t *testing.T) {
	err := NewConfigError("friction_coefficient", "must be nonnegative, got %g", -0.1)
	assert.Equal(t,
		"invalid parameter 'friction_coefficient': must be nonnegative, got -0.1",
		err.Error())
	assert.False(t, IsRecoverable(err))

	rec := fmt.Errorf("cohesive kinematics: %w",
		NewRecoverableError("deformation gradient is not finite"))
	require.True(t, IsRecoverable(rec))
	assert.True(t, errors.Is(rec, ErrCutTimestep))

	var te *TopologyError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", NewTopologyError("node %d", 7)), &te))
	assert.Equal(t, "topology error: node 7", te.Error())
}
