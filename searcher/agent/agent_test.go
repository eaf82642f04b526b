package agent

import (
	"context"
	"sync"
	"testing"
	"uct/game"
	"uct/searcher"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// panicState fails whenever a successor is requested.
type panicState struct{}

func (panicState) Terminal() bool { return false }

func (panicState) Next(rng *rand.Rand) game.State { panic("domain failure") }

func (panicState) Reward() float64 { return 0 }

func (panicState) MaxMove() int { return 2 }

func (panicState) Hash() game.StateHash { return 0 }

func newWorker(id int, seed uint64) *Worker {
	tree := searcher.NewTree(game.NewSumState(), rand.New(rand.NewSource(seed)))
	return NewWorker(id, tree, searcher.WithLogger(zerolog.Nop()))
}

func TestWorkerSearch(t *testing.T) {
	t.Run("advances its own root", func(t *testing.T) {
		w := newWorker(1, 1)
		defer w.Close()
		ctx := context.Background()

		state, metric, err := w.Search(ctx, 50)

		require.NoError(t, err)
		require.Equal(t, game.NumTurns-1, state.(*game.SumState).Turn(), "Search should move one turn forward")
		require.Equal(t, 50, metric.Iterations)
		root, err := w.RootState(ctx)
		require.NoError(t, err)
		require.True(t, game.Equal(state, root), "Worker root should be the returned state")
	})

	t.Run("workers are independent", func(t *testing.T) {
		a := newWorker(1, 2)
		defer a.Close()
		b := newWorker(2, 3)
		defer b.Close()
		ctx := context.Background()

		rewardBefore, visitsBefore, err := b.RootStats(ctx)
		require.NoError(t, err)

		_, _, err = a.Search(ctx, 100)
		require.NoError(t, err)

		reward, visits, err := b.RootStats(ctx)
		require.NoError(t, err)
		require.Equal(t, rewardBefore, reward, "Searching one worker should not touch another")
		require.Equal(t, visitsBefore, visits, "Searching one worker should not touch another")
		require.Equal(t, 1, visits)
	})

	t.Run("serializes concurrent requests", func(t *testing.T) {
		w := newWorker(1, 4)
		defer w.Close()
		ctx := context.Background()

		const requests = 4
		var wg sync.WaitGroup
		errs := make([]error, requests)
		for i := 0; i < requests; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = w.Search(ctx, 20)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		root, err := w.RootState(ctx)
		require.NoError(t, err)
		require.Equal(t, game.NumTurns-requests, root.(*game.SumState).Turn(), "Every request should advance the root once")
	})

	t.Run("surfaces search errors", func(t *testing.T) {
		w := newWorker(3, 5)
		defer w.Close()

		_, _, err := w.Search(context.Background(), 0)

		require.True(t, errors.Is(err, searcher.ErrNoChildren), "Should signal ErrNoChildren")
	})

	t.Run("gives up waiting when the context is done", func(t *testing.T) {
		w := newWorker(4, 6)
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := w.Search(ctx, 10)

		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestWorkerPanics(t *testing.T) {
	tree := searcher.NewTree(panicState{}, rand.New(rand.NewSource(1)))
	w := NewWorker(6, tree, searcher.WithLogger(zerolog.Nop()))
	defer w.Close()
	ctx := context.Background()

	require.PanicsWithValue(t, "domain failure", func() { w.Search(ctx, 10) }, "Domain panics should reach the caller")

	reward, visits, err := w.RootStats(ctx)
	require.NoError(t, err, "Worker should keep serving after a panic")
	require.Equal(t, 0.0, reward)
	require.Equal(t, 1, visits, "Failed iteration should not be backed up")
	require.PanicsWithValue(t, "domain failure", func() { w.Search(ctx, 10) })
}

func TestWorkerDot(t *testing.T) {
	w := newWorker(1, 7)
	defer w.Close()
	ctx := context.Background()
	_, _, err := w.Search(ctx, 30)
	require.NoError(t, err)

	dot, err := w.Dot(ctx)

	require.NoError(t, err)
	require.Contains(t, dot, "digraph")
}

func TestWorkerClose(t *testing.T) {
	w := newWorker(5, 8)
	w.Close()
	w.Close()
	ctx := context.Background()

	_, _, err := w.Search(ctx, 10)
	require.True(t, errors.Is(err, ErrClosed), "Should signal ErrClosed")

	_, _, err = w.RootStats(ctx)
	require.True(t, errors.Is(err, ErrClosed), "Should signal ErrClosed")

	_, err = w.Dot(ctx)
	require.True(t, errors.Is(err, ErrClosed), "Should signal ErrClosed")
}
