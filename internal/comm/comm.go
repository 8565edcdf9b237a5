package comm

import (
	"context"
	"fmt"
	"sync"
)

// Communicator connects the participants of one run.
type Communicator interface {
	Rank() int
	Size() int
	// Barrier blocks until every participant has entered it or ctx ends.
	Barrier(ctx context.Context) error
	// SumShared replaces the Dim-component values of every listed global
	// node with the sum of the contributions of all participants. Every
	// participant must call it the same number of times.
	SumShared(ctx context.Context, globalIDs []int, values []float64, dim int) error
}

// InTurn runs fn on each participant in rank order, one at a time. Every
// participant must call InTurn; it returns once all turns have completed.
func InTurn(ctx context.Context, c Communicator, fn func() error) error {
	var fnErr error
	for turn := 0; turn < c.Size(); turn++ {
		if c.Rank() == turn {
			fnErr = fn()
		}
		if err := c.Barrier(ctx); err != nil {
			return err
		}
	}
	return fnErr
}

// Serial is the communicator of a single-participant run.
type Serial struct{}

func (Serial) Rank() int                                              { return 0 }
func (Serial) Size() int                                              { return 1 }
func (Serial) Barrier(ctx context.Context) error                      { return ctx.Err() }
func (Serial) SumShared(context.Context, []int, []float64, int) error { return nil }

// Group is a set of in-process participants that synchronize through shared
// memory. Use Member to obtain each participant's Communicator.
type Group struct {
	size int

	mu      sync.Mutex
	arrived int
	release chan struct{}

	sumMu sync.Mutex
	sums  map[int][]float64
}

func NewGroup(size int) *Group {
	if size < 1 {
		size = 1
	}
	return &Group{
		size:    size,
		release: make(chan struct{}),
		sums:    make(map[int][]float64),
	}
}

func (g *Group) Size() int { return g.size }

// Member returns the communicator for rank.
func (g *Group) Member(rank int) (Communicator, error) {
	if rank < 0 || rank >= g.size {
		return nil, fmt.Errorf("comm: rank %d outside group of %d", rank, g.size)
	}
	return &member{group: g, rank: rank}, nil
}

func (g *Group) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.release
	g.arrived++
	if g.arrived == g.size {
		g.arrived = 0
		g.release = make(chan struct{})
		close(ch)
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type member struct {
	group *Group
	rank  int
}

func (m *member) Rank() int { return m.rank }
func (m *member) Size() int { return m.group.size }

func (m *member) Barrier(ctx context.Context) error {
	return m.group.wait(ctx)
}

func (m *member) SumShared(ctx context.Context, globalIDs []int, values []float64, dim int) error {
	if len(values) != len(globalIDs)*dim {
		return fmt.Errorf("comm: %d values for %d nodes of dimension %d", len(values), len(globalIDs), dim)
	}
	g := m.group

	// Previous reduction fully read before the table is reset.
	if err := g.wait(ctx); err != nil {
		return err
	}
	if m.rank == 0 {
		g.sumMu.Lock()
		g.sums = make(map[int][]float64, len(globalIDs))
		g.sumMu.Unlock()
	}
	if err := g.wait(ctx); err != nil {
		return err
	}

	g.sumMu.Lock()
	for i, id := range globalIDs {
		acc, ok := g.sums[id]
		if !ok {
			acc = make([]float64, dim)
			g.sums[id] = acc
		}
		for c := 0; c < dim; c++ {
			acc[c] += values[i*dim+c]
		}
	}
	g.sumMu.Unlock()

	if err := g.wait(ctx); err != nil {
		return err
	}

	g.sumMu.Lock()
	for i, id := range globalIDs {
		copy(values[i*dim:(i+1)*dim], g.sums[id])
	}
	g.sumMu.Unlock()
	return nil
}
