package experiments

import (
	"context"
	"fmt"
	"uct/engine"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
	"uct/searcher/agent"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Result is the answer of one worker to a fanned-out search request.
type Result struct {
	Worker int
	State  game.State
	Metric metrics.SearchMetric
}

// Report is everything one call to Run produced.
type Report struct {
	Episodes []engine.Episode // in worker order
	Summary  Summary
	Dir      string // where records were written, empty if they were not
}

// NewWorkers starts one worker per config, each with its own tree over a
// fresh initial state and its own seeded RNG.
func NewWorkers(configs []metrics.WorkerConfig, initial func() game.State, compactThreshold int) []*agent.Worker {
	workers := make([]*agent.Worker, len(configs))
	for i, c := range configs {
		tree := searcher.NewTree(initial(), rand.New(rand.NewSource(c.Seed)))
		workers[i] = agent.NewWorker(c.ID, tree,
			searcher.WithScalar(c.Scalar),
			searcher.WithDescendProbability(c.DescendProbability),
			searcher.WithCompactThreshold(compactThreshold),
			searcher.WithLogger(log.Logger.With().Int("worker", c.ID).Logger()),
			searcher.WithMetrics(),
		)
	}
	return workers
}

func closeAll(workers []*agent.Worker) {
	for _, w := range workers {
		w.Close()
	}
}

// SearchAll sends budgets[i] to workers[i] concurrently and returns the
// results in worker order. It fails with the first error any worker reports.
func SearchAll(ctx context.Context, workers []*agent.Worker, budgets []int) ([]Result, error) {
	if len(workers) != len(budgets) {
		return nil, errors.Errorf("got %d budgets for %d workers", len(budgets), len(workers))
	}

	results := make([]Result, len(workers))
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			state, metric, err := w.Search(ctx, budgets[i])
			if err != nil {
				return err
			}
			results[i] = Result{Worker: w.ID(), State: state, Metric: metric}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunFanOut starts cfg.Workers workers and gives worker i a single search
// with budget InitialBudget/(i+1).
func RunFanOut(ctx context.Context, cfg Config, initial func() game.State) ([]Result, error) {
	if err := cfg.ValidateFanOut(); err != nil {
		return nil, err
	}
	workers := NewWorkers(cfg.WorkerConfigs(), initial, cfg.CompactThreshold)
	defer closeAll(workers)

	budgets := engine.DecayingBudgets(cfg.InitialBudget, cfg.Workers)
	log.Info().Msgf("fanning out budgets %v to %d workers...", budgets, len(workers))

	results, err := SearchAll(ctx, workers, budgets)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		log.Info().Msgf("worker %d with budget %d picked %v", r.Worker, r.Metric.Budget, r.State)
	}
	return results, nil
}

// Run plays one episode per worker concurrently, summarizes them and, when
// cfg.OutDir is set, stores the records.
func Run(ctx context.Context, cfg Config, initial func() game.State) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	configs := cfg.WorkerConfigs()
	workers := NewWorkers(configs, initial, cfg.CompactThreshold)
	defer closeAll(workers)

	log.Info().Msgf("starting %s experiment with %d workers...", cfg.Name, len(workers))

	budgets := engine.DecayingBudgets(cfg.InitialBudget, cfg.Steps)
	episodes := make([]engine.Episode, len(workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			episode, err := engine.LocalEngine(w, budgets).Run(gctx)
			episodes[i] = episode
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, errors.Wrapf(err, "%s experiment", cfg.Name)
	}

	report := Report{Episodes: episodes, Summary: Summarize(episodes)}
	logSummary(log.Info(), report.Summary)
	log.Info().Msgf("completed %s experiment", cfg.Name)

	if cfg.OutDir == "" {
		return report, nil
	}
	dir, err := store(ctx, cfg, configs, episodes, workers)
	if err != nil {
		return report, err
	}
	report.Dir = dir
	return report, nil
}

func logSummary(e *zerolog.Event, s Summary) {
	e.Int("episodes", s.Episodes).
		Int("terminal", s.Terminal).
		Float64("mean_reward", s.MeanReward).
		Float64("std_reward", s.StdReward).
		Float64("min_reward", s.MinReward).
		Float64("max_reward", s.MaxReward).
		Float64("mean_steps", s.MeanSteps).
		Int("iterations", s.Iterations).
		Msg("summary")
}

func store(ctx context.Context, cfg Config, configs []metrics.WorkerConfig, episodes []engine.Episode, workers []*agent.Worker) (string, error) {
	format, err := metrics.ParseFormat(cfg.Format)
	if err != nil {
		return "", err
	}
	writer, err := metrics.NewWriter(cfg.OutDir, cfg.Name, format)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	episodeRecords := make([]metrics.EpisodeRecord, len(episodes))
	searchRecords := []metrics.SearchRecord{}
	for i, e := range episodes {
		episodeRecords[i] = metrics.EpisodeRecord{ID: i + 1, EpisodeMetric: e.Metric}
		for _, step := range e.Steps {
			searchRecords = append(searchRecords, metrics.SearchRecord{Episode: i + 1, StepMetric: step})
		}
	}

	if err := writer.WriteWorkerConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store worker configs: %w", err)
	}
	log.Info().Msg("stored worker configs")

	if err := writer.WriteEpisodeRecords(episodeRecords); err != nil {
		return "", fmt.Errorf("failed to store episode records: %w", err)
	}
	log.Info().Msg("stored episode records")

	if err := writer.WriteSearchRecords(searchRecords); err != nil {
		return "", fmt.Errorf("failed to store search records: %w", err)
	}
	log.Info().Msg("stored search records")

	if cfg.Dot {
		for _, w := range workers {
			dot, err := w.Dot(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to render tree of worker %d: %w", w.ID(), err)
			}
			if err := writer.WriteFile(fmt.Sprintf("worker_%d.dot", w.ID()), []byte(dot)); err != nil {
				return "", err
			}
		}
		log.Info().Msg("stored search trees")
	}

	return writer.Dir(), nil
}
