package experiments

import (
	"uct/engine"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the episodes of one experiment. Reward statistics only
// cover episodes that reached a terminal state.
type Summary struct {
	Episodes   int
	Terminal   int
	MeanReward float64
	StdReward  float64
	MinReward  float64
	MaxReward  float64
	MeanSteps  float64
	Iterations int
}

func Summarize(episodes []engine.Episode) Summary {
	s := Summary{Episodes: len(episodes)}
	if len(episodes) == 0 {
		return s
	}

	var rewards []float64
	steps := make([]float64, len(episodes))
	for i, e := range episodes {
		steps[i] = float64(e.Metric.Steps)
		for _, step := range e.Steps {
			s.Iterations += step.Iterations
		}
		if e.Metric.Terminal {
			rewards = append(rewards, e.Metric.Reward)
		}
	}
	s.MeanSteps = stat.Mean(steps, nil)

	s.Terminal = len(rewards)
	if s.Terminal == 0 {
		return s
	}
	s.MeanReward = stat.Mean(rewards, nil)
	if s.Terminal > 1 {
		s.StdReward = stat.StdDev(rewards, nil)
	}
	s.MinReward = floats.Min(rewards)
	s.MaxReward = floats.Max(rewards)
	return s
}
