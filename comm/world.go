// Package comm is the message passing substrate the contact layer runs on.
// A World holds a fixed number of ranks that execute as goroutines and talk
// only through sparse point to point pushes and small collectives.
package comm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/notargets/gocontact/utils"
)

type World struct {
	size    int
	mail    *utils.MailBox[any]
	barrier *utils.Barrier
	slots   []any
}

func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("world size must be positive, got %d", size))
	}
	return &World{
		size:    size,
		mail:    utils.NewMailBox[any](size),
		barrier: utils.NewBarrier(size),
		slots:   make([]any, size),
	}
}

func (w *World) Size() int { return w.size }

// Run executes fn once per rank and waits for all of them. The error of the
// lowest failing rank is returned.
func (w *World) Run(fn func(c *Comm) error) error {
	var (
		wg   sync.WaitGroup
		errs = make([]error, w.size)
	)
	for rank := 0; rank < w.size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = fn(&Comm{world: w, rank: rank})
		}(rank)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Comm is one rank's handle on the world
type Comm struct {
	world *World
	rank  int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.world.size }
func (c *Comm) Barrier()  { c.world.barrier.Wait() }

// Envelope is a received payload tagged with its sender
type Envelope[P any] struct {
	From    int
	Payload P
}

// Push delivers every payload in outbound (keyed by destination rank) and
// returns the payloads addressed to this rank ordered by sender. Only
// destinations with payloads are sent to. Every rank must call Push.
func Push[P any](c *Comm, outbound map[int][]P) (inbound []Envelope[P]) {
	mb := c.world.mail
	dests := make([]int, 0, len(outbound))
	for dest := range outbound {
		dests = append(dests, dest)
	}
	sort.Ints(dests)
	for _, dest := range dests {
		for _, p := range outbound[dest] {
			mb.PostMessage(c.rank, dest, Envelope[P]{From: c.rank, Payload: p})
		}
	}
	mb.DeliverMyMessages(c.rank)
	c.Barrier()
	mb.ReceiveMyMessages(c.rank)
	for _, msg := range mb.ReceiveMsgQs[c.rank].Cells() {
		inbound = append(inbound, msg.(Envelope[P]))
	}
	c.Barrier()
	mb.ClearMyMessages(c.rank)
	sort.SliceStable(inbound, func(i, j int) bool { return inbound[i].From < inbound[j].From })
	return
}

// AllGather returns every rank's v indexed by rank
func AllGather[T any](c *Comm, v T) (all []T) {
	w := c.world
	w.slots[c.rank] = v
	c.Barrier()
	all = make([]T, w.size)
	for r, s := range w.slots {
		all[r] = s.(T)
	}
	c.Barrier()
	return
}

// AllReduceSum adds in rank order so every rank sees the same rounding
func AllReduceSum(c *Comm, v float64) (sum float64) {
	for _, x := range AllGather(c, v) {
		sum += x
	}
	return
}

func AllReduceMax(c *Comm, v float64) (max float64) {
	all := AllGather(c, v)
	max = all[0]
	for _, x := range all[1:] {
		if x > max {
			max = x
		}
	}
	return
}

func AllReduceMaxInt(c *Comm, v int) (max int) {
	all := AllGather(c, v)
	max = all[0]
	for _, x := range all[1:] {
		if x > max {
			max = x
		}
	}
	return
}

// AgreeError makes a local failure collective: if any rank has an error every
// rank returns one, so no rank is left waiting in a later exchange.
func AgreeError(c *Comm, err error) error {
	errs := AllGather(c, errorBox{err})
	if err != nil {
		return err
	}
	for r, e := range errs {
		if e.err != nil {
			return fmt.Errorf("rank %d failed: %w", r, e.err)
		}
	}
	return nil
}

// errorBox keeps a nil error from becoming a nil interface in the slots
type errorBox struct{ err error }
