package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counts one search", func(t *testing.T) {
		c := NewCollector()
		c.Start(5)
		c.SetTreeReused(true)
		for i := 0; i < 5; i++ {
			c.AddIteration()
		}
		c.AddExpansion()
		c.AddExpansion()
		c.AddTerminalHit()

		m := c.Complete()

		require.Equal(t, 5, m.Budget)
		require.Equal(t, 5, m.Iterations)
		require.Equal(t, 2, m.Expansions)
		require.Equal(t, 1, m.TerminalHits)
		require.True(t, m.IsTreeReused)
		require.GreaterOrEqual(t, m.Duration.Nanoseconds(), int64(0))
	})

	t.Run("start resets the counters", func(t *testing.T) {
		c := NewCollector()
		c.Start(3)
		c.AddIteration()
		c.AddExpansion()

		c.Start(4)
		m := c.Complete()

		require.Equal(t, 4, m.Budget)
		require.Zero(t, m.Iterations)
		require.Zero(t, m.Expansions)
	})

	t.Run("dummy collects nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(3)
		c.AddIteration()

		require.Equal(t, SearchMetric{}, c.Complete())
	})
}
