package comm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func runGroup(t *testing.T, size int, fn func(ctx context.Context, c Communicator) error) {
	t.Helper()
	group := NewGroup(size)
	eg, ctx := errgroup.WithContext(context.Background())
	for rank := 0; rank < size; rank++ {
		c, err := group.Member(rank)
		require.NoError(t, err)
		eg.Go(func() error { return fn(ctx, c) })
	}
	require.NoError(t, eg.Wait())
}

func TestInTurn_RankOrder(t *testing.T) {
	const size = 5
	var mu sync.Mutex
	var order []int

	runGroup(t, size, func(ctx context.Context, c Communicator) error {
		// Stagger arrival so a naive implementation would interleave.
		time.Sleep(time.Duration(size-c.Rank()) * time.Millisecond)
		return InTurn(ctx, c, func() error {
			mu.Lock()
			order = append(order, c.Rank())
			mu.Unlock()
			return nil
		})
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestInTurn_Serial(t *testing.T) {
	calls := 0
	err := InTurn(context.Background(), Serial{}, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSerialBarrier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, Serial{}.Barrier(ctx))
	cancel()
	assert.ErrorIs(t, Serial{}.Barrier(ctx), context.Canceled)
}

func TestSumShared(t *testing.T) {
	const size = 3
	results := make([][]float64, size)

	runGroup(t, size, func(ctx context.Context, c Communicator) error {
		r := float64(c.Rank())
		// Global node 7 is on every rank, node 9 only on ranks 1 and 2.
		ids := []int{7}
		values := []float64{1, r, 10 * r}
		if c.Rank() > 0 {
			ids = append(ids, 9)
			values = append(values, r, r, r)
		}
		// Two reductions back to back must not bleed into each other.
		for i := 0; i < 2; i++ {
			if i == 1 {
				copy(values, []float64{1, r, 10 * r})
				if c.Rank() > 0 {
					copy(values[3:], []float64{r, r, r})
				}
			}
			if err := c.SumShared(ctx, ids, values, 3); err != nil {
				return err
			}
		}
		results[c.Rank()] = values
		return nil
	})

	assert.Equal(t, []float64{3, 3, 30}, results[0])
	assert.Equal(t, []float64{3, 3, 30, 3, 3, 3}, results[1])
	assert.Equal(t, []float64{3, 3, 30, 3, 3, 3}, results[2])
}

func TestSumShared_LengthMismatch(t *testing.T) {
	group := NewGroup(1)
	c, err := group.Member(0)
	require.NoError(t, err)
	err = c.SumShared(context.Background(), []int{1, 2}, []float64{1, 2, 3}, 3)
	assert.Error(t, err)
}

func TestBarrier_ContextCancel(t *testing.T) {
	group := NewGroup(2)
	c, err := group.Member(0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Barrier(ctx), context.DeadlineExceeded)
}

func TestGroup_Member(t *testing.T) {
	group := NewGroup(2)
	_, err := group.Member(2)
	assert.Error(t, err)

	c, err := group.Member(1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Rank())
	assert.Equal(t, 2, c.Size())
}
