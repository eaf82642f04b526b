package agent

import (
	"context"
	"sync"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"

	"github.com/pkg/errors"
)

// ErrClosed is returned by requests sent to a closed worker.
var ErrClosed = errors.New("worker is closed")

type request struct {
	run      func(s *searcher.Searcher)
	done     chan struct{}
	panicked any // recovered from run, re-raised on the caller's goroutine
}

// Worker owns a search tree and serves requests against it one at a time
// from a dedicated goroutine. Workers share nothing, so any number of them
// can search concurrently.
type Worker struct {
	id       int
	requests chan *request
	quit     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewWorker starts a worker that owns tree. The tree must not be used by
// the caller afterwards.
func NewWorker(id int, tree *searcher.Tree, options ...searcher.Option) *Worker {
	w := &Worker{
		id:       id,
		requests: make(chan *request),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.serve(searcher.New(tree, options...))
	return w
}

func (w *Worker) ID() int {
	return w.id
}

func (w *Worker) serve(s *searcher.Searcher) {
	defer close(w.stopped)
	for {
		select {
		case req := <-w.requests:
			w.handle(s, req)
		case <-w.quit:
			return
		}
	}
}

// handle runs one request. A panic raised by the state space is handed back
// to the caller instead of unwinding the worker goroutine; the worker keeps
// serving. Tree mutations only happen after Next and Reward return, so the
// tree stays consistent.
func (w *Worker) handle(s *searcher.Searcher, req *request) {
	defer close(req.done)
	defer func() {
		if p := recover(); p != nil {
			req.panicked = p
		}
	}()
	req.run(s)
}

// do hands run to the worker goroutine and waits for it to finish. Once a
// request is accepted it always runs to completion; run is expected to watch
// ctx itself. A panic inside run is re-raised here with the same value.
func (w *Worker) do(ctx context.Context, run func(s *searcher.Searcher)) error {
	req := &request{run: run, done: make(chan struct{})}
	select {
	case w.requests <- req:
	case <-w.quit:
		return errors.Wrapf(ErrClosed, "worker %d", w.id)
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	if req.panicked != nil {
		panic(req.panicked)
	}
	return nil
}

// Search runs budget UCT iterations on the worker's tree, advances its root
// to the best child and returns that child's state.
func (w *Worker) Search(ctx context.Context, budget int) (game.State, metrics.SearchMetric, error) {
	var (
		state  game.State
		metric metrics.SearchMetric
		err    error
	)
	if doErr := w.do(ctx, func(s *searcher.Searcher) {
		state, metric, err = s.Search(ctx, budget)
	}); doErr != nil {
		return nil, metrics.SearchMetric{}, doErr
	}
	if err != nil {
		return nil, metrics.SearchMetric{}, errors.Wrapf(err, "worker %d", w.id)
	}
	return state, metric, nil
}

// RootStats returns the accumulated reward and visit count of the worker's root.
func (w *Worker) RootStats(ctx context.Context) (reward float64, visits int, err error) {
	err = w.do(ctx, func(s *searcher.Searcher) {
		reward, visits = s.RootStats()
	})
	return reward, visits, err
}

// RootState returns the state at the worker's root.
func (w *Worker) RootState(ctx context.Context) (game.State, error) {
	var state game.State
	err := w.do(ctx, func(s *searcher.Searcher) {
		tree := s.Tree()
		state = tree.State(tree.Root())
	})
	return state, err
}

// Dot renders the worker's current tree in Graphviz format.
func (w *Worker) Dot(ctx context.Context) (string, error) {
	var (
		dot string
		err error
	)
	if doErr := w.do(ctx, func(s *searcher.Searcher) {
		dot, err = s.Tree().Dot()
	}); doErr != nil {
		return "", doErr
	}
	return dot, err
}

// Close stops the worker goroutine after the request in progress, if any.
// It is safe to call more than once.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.stopped
}
