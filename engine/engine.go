package engine

import (
	"context"
	"uct/experiments/metrics"
	"uct/game"
)

// Episode is the outcome of driving one worker from its root until a
// terminal state or the end of its budget schedule.
type Episode struct {
	Trajectory []game.State // states returned by each search, in order
	Steps      []metrics.StepMetric
	Metric     metrics.EpisodeMetric
}

// Final returns the last state reached, or nil if no search succeeded.
func (e Episode) Final() game.State {
	if len(e.Trajectory) == 0 {
		return nil
	}
	return e.Trajectory[len(e.Trajectory)-1]
}

type Engine interface {
	// Run searches step after step until a terminal state is reached or the budgets run out
	Run(ctx context.Context) (Episode, error)
}

// DecayingBudgets returns steps budgets where step l gets initial/(l+1)
// iterations, rounded down.
func DecayingBudgets(initial, steps int) []int {
	budgets := make([]int, max(steps, 0))
	for l := range budgets {
		budgets[l] = initial / (l + 1)
	}
	return budgets
}
