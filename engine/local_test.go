package engine

import (
	"context"
	"testing"
	"uct/game"
	"uct/searcher"
	"uct/searcher/agent"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newWorker(id int, seed uint64) *agent.Worker {
	tree := searcher.NewTree(game.NewSumState(), rand.New(rand.NewSource(seed)))
	return agent.NewWorker(id, tree, searcher.WithLogger(zerolog.Nop()), searcher.WithMetrics())
}

func TestDecayingBudgets(t *testing.T) {
	require.Equal(t, []int{10, 5, 3, 2, 2}, DecayingBudgets(10, 5))
	require.Equal(t, []int{1, 0}, DecayingBudgets(1, 2), "Budgets should round down")
	require.Empty(t, DecayingBudgets(10, 0))
	require.Empty(t, DecayingBudgets(10, -1))
}

func TestLocalEngine(t *testing.T) {
	t.Run("rejects an empty schedule", func(t *testing.T) {
		w := newWorker(1, 1)
		defer w.Close()

		require.Panics(t, func() { LocalEngine(w, nil) })
	})

	t.Run("plays until a terminal state", func(t *testing.T) {
		w := newWorker(1, 2)
		defer w.Close()
		budgets := make([]int, game.NumTurns+5)
		for i := range budgets {
			budgets[i] = 60
		}

		episode, err := LocalEngine(w, budgets).Run(context.Background())

		require.NoError(t, err)
		require.Len(t, episode.Steps, game.NumTurns, "Each step should use one turn")
		require.Len(t, episode.Trajectory, game.NumTurns)
		final := episode.Final().(*game.SumState)
		require.True(t, final.Terminal())
		require.Len(t, final.Moves(), game.NumTurns)

		m := episode.Metric
		require.Equal(t, 1, m.Worker)
		require.Equal(t, game.NumTurns, m.Steps)
		require.True(t, m.Terminal)
		require.Equal(t, final.Reward(), m.Reward)
		require.Equal(t, final.String(), m.Final)
		require.False(t, m.EndTime.Before(m.StartTime))

		for i, step := range episode.Steps {
			require.Equal(t, i+1, step.Step)
			require.Equal(t, 1, step.Worker)
			require.Equal(t, 60, step.Iterations)
			require.Equal(t, i > 0, step.IsTreeReused)
		}
	})

	t.Run("stops when the schedule runs out", func(t *testing.T) {
		w := newWorker(2, 3)
		defer w.Close()

		episode, err := LocalEngine(w, DecayingBudgets(40, 3)).Run(context.Background())

		require.NoError(t, err)
		require.Len(t, episode.Steps, 3)
		require.False(t, episode.Metric.Terminal)
		require.Equal(t, 0.0, episode.Metric.Reward)
		require.Equal(t, game.NumTurns-3, episode.Final().(*game.SumState).Turn())
		require.Equal(t, []int{40, 20, 13}, []int{episode.Steps[0].Budget, episode.Steps[1].Budget, episode.Steps[2].Budget})
	})

	t.Run("returns completed steps with the error", func(t *testing.T) {
		w := newWorker(3, 4)
		defer w.Close()

		episode, err := LocalEngine(w, []int{1, 0}).Run(context.Background())

		require.True(t, errors.Is(err, searcher.ErrNoChildren), "Zero budget on a childless root should fail")
		require.Len(t, episode.Steps, 1)
		require.Equal(t, 1, episode.Metric.Steps)
		require.NotEmpty(t, episode.Metric.Final)
	})
}
