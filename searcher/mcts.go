package searcher

import (
	"context"
	"uct/experiments/metrics"
	"uct/game"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Option func(s *Searcher)

// Searcher runs UCT iterations over a tree it owns. Every search consumes
// the tree: the root advances to the best child found.
type Searcher struct {
	tree               *Tree
	scalar             float64
	descendProbability float64
	collect            bool
	metrics            metrics.Collector
	logger             zerolog.Logger
	searches           int
}

// WithScalar sets the exploration scalar used while selecting.
func WithScalar(scalar float64) Option {
	return func(s *Searcher) {
		if scalar < 0 {
			panic("exploration scalar must not be negative")
		}
		s.scalar = scalar
	}
}

// WithDescendProbability sets the chance of descending into the best child
// of a node that could still be expanded.
func WithDescendProbability(p float64) Option {
	return func(s *Searcher) {
		if p < 0 || p > 1 {
			panic("descend probability must be within [0, 1]")
		}
		s.descendProbability = p
	}
}

func WithCompactThreshold(threshold int) Option {
	return func(s *Searcher) {
		s.tree.SetCompactThreshold(threshold)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

func WithMetrics() Option {
	return func(s *Searcher) {
		s.collect = true
		s.metrics = metrics.NewCollector()
	}
}

func New(tree *Tree, options ...Option) *Searcher {
	s := &Searcher{ // Default values
		tree:               tree,
		scalar:             DefaultScalar,
		descendProbability: DefaultDescendProbability,
		metrics:            metrics.NewDummyCollector(),
		logger:             log.Logger,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Searcher) Tree() *Tree {
	return s.tree
}

// RootStats returns the accumulated reward and visit count of the root.
func (s *Searcher) RootStats() (float64, int) {
	root := s.tree.Root()
	return s.tree.Reward(root), s.tree.Visits(root)
}

// Search runs budget iterations of selection, expansion, simulation and
// backup, then advances the root to the child with the best average reward
// and returns its state. A budget below 1 runs no iterations and only picks
// from the children the root already has.
//
// The context is checked between iterations. When it is done, or when the
// root has no children to pick from, the root is left in place and an error
// is returned.
func (s *Searcher) Search(ctx context.Context, budget int) (game.State, metrics.SearchMetric, error) {
	s.metrics.Start(budget)
	s.metrics.SetTreeReused(s.searches > 0)
	s.searches++

	root := s.tree.Root()
	for i := 0; i < budget; i++ {
		if err := ctx.Err(); err != nil {
			return nil, metrics.SearchMetric{}, errors.Wrapf(err, "search stopped after %d of %d iterations", i, budget)
		}

		leaf, err := s.selectThenExpand(root)
		if err != nil {
			return nil, metrics.SearchMetric{}, err
		}
		s.backup(leaf, s.tree.Simulate(leaf), i, budget)
	}

	best, err := s.tree.BestChild(root, 0)
	if err != nil {
		return nil, metrics.SearchMetric{}, errors.Wrapf(err, "search with budget %d", budget)
	}

	metric := s.metrics.Complete()
	metric.Budget = budget
	metric.Iterations = max(budget, 0)
	metric.RootReward, metric.RootVisits = s.RootStats()
	metric.BestReward = s.tree.Reward(best)
	metric.BestVisits = s.tree.Visits(best)

	state := s.tree.State(best)
	metric.IsBestTerminal = state.Terminal()
	if err := s.tree.Advance(best); err != nil {
		return nil, metrics.SearchMetric{}, err
	}
	if s.collect {
		metric.TreeSize = s.tree.Size()
		metric.TreeDepth = s.tree.Depth()
	}

	s.logger.Debug().
		Int("budget", budget).
		Int("root_visits", metric.RootVisits).
		Float64("best_reward", metric.BestReward).
		Int("best_visits", metric.BestVisits).
		Msgf("search completed: %v", state)

	return state, metric, nil
}

// selectThenExpand walks down from id until it expands a new node or reaches
// a terminal one. A node that still has unseen successors is expanded with
// probability 1-descendProbability; otherwise the walk descends into its best child.
func (s *Searcher) selectThenExpand(id NodeID) (NodeID, error) {
	t := s.tree
	for !t.State(id).Terminal() {
		if len(t.Children(id)) == 0 {
			return s.expand(id), nil
		}
		if !t.FullyExpanded(id) && t.rng.Float64() >= s.descendProbability {
			return s.expand(id), nil
		}

		child, err := t.BestChild(id, s.scalar)
		if err != nil {
			return nilNode, err
		}
		id = child
	}

	s.metrics.AddTerminalHit()
	return id, nil
}

func (s *Searcher) expand(id NodeID) NodeID {
	s.metrics.AddExpansion()
	return s.tree.Expand(id)
}

// backup records the reward of one finished iteration from id up to the root.
func (s *Searcher) backup(id NodeID, reward float64, iteration, budget int) {
	s.tree.Backup(id, reward)
	s.metrics.AddIteration()

	s.logger.Trace().
		Int("iteration", iteration).
		Int("budget", budget).
		Int("node", int(id)).
		Float64("reward", reward).
		Msg("backed up")
}
