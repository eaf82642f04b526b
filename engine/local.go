package engine

import (
	"context"
	"fmt"
	"time"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher/agent"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Local drives a single in-process worker through a budget schedule.
type Local struct {
	Worker  *agent.Worker
	Budgets []int
}

func LocalEngine(worker *agent.Worker, budgets []int) *Local {
	if worker == nil {
		panic("local engine needs a worker")
	}
	if len(budgets) == 0 {
		panic("need at least one budget")
	}
	return &Local{
		Worker:  worker,
		Budgets: budgets,
	}
}

// Run executes one search per budget, stopping early once a search returns
// a terminal state. On error the steps completed so far are returned with it.
func (e *Local) Run(ctx context.Context) (Episode, error) {
	id := e.Worker.ID()
	episode := Episode{
		Metric: metrics.EpisodeMetric{Worker: id, StartTime: time.Now()},
	}

	log.Info().Msgf("worker %d is starting an episode of at most %d steps", id, len(e.Budgets))

	var state game.State
	for step, budget := range e.Budgets {
		next, metric, err := e.Worker.Search(ctx, budget)
		if err != nil {
			e.finish(&episode, state)
			return episode, errors.Wrapf(err, "step %d", step+1)
		}
		state = next
		episode.Trajectory = append(episode.Trajectory, state)
		episode.Steps = append(episode.Steps, metrics.StepMetric{
			Step:         step + 1,
			Worker:       id,
			SearchMetric: metric,
		})

		log.Debug().Msgf("worker %d step %d with budget %d reached %v", id, step+1, budget, state)

		if state.Terminal() {
			break
		}
	}

	e.finish(&episode, state)
	log.Info().Msgf("worker %d finished after %d steps: %s", id, episode.Metric.Steps, episode.Metric.Final)
	return episode, nil
}

func (e *Local) finish(episode *Episode, state game.State) {
	m := &episode.Metric
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Steps = len(episode.Steps)
	if state == nil {
		return
	}
	m.Final = fmt.Sprint(state)
	if state.Terminal() {
		m.Terminal = true
		m.Reward = state.Reward()
	}
}
