package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric describes one Search request served by a worker.
type SearchMetric struct {
	Budget         int
	Iterations     int
	Expansions     int
	TerminalHits   int // iterations whose selection ended on a terminal node
	Duration       time.Duration
	RootVisits     int     // visits of the searched root before it was advanced
	RootReward     float64 // accumulated reward of the searched root
	TreeSize       int     // nodes reachable from the new root
	TreeDepth      int
	IsTreeReused   bool // the search started from a root kept from a previous request
	BestReward     float64
	BestVisits     int
	IsBestTerminal bool
}

type StepMetric struct {
	Step   int
	Worker int // WorkerConfig.ID
	SearchMetric
}

type EpisodeMetric struct {
	Worker    int // WorkerConfig.ID
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Steps     int
	Terminal  bool
	Reward    float64 // terminal reward, zero when the schedule ran out first
	Final     string
}

type Collector interface {
	Start(budget int)
	SetTreeReused(value bool)
	AddIteration()
	AddExpansion()
	AddTerminalHit()
	Complete() SearchMetric
}

type collector struct {
	budget       int
	startTime    time.Time
	iterations   atomic.Int32
	expansions   atomic.Int32
	terminalHits atomic.Int32
	isTreeReused atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(budget int) {
	m.startTime = time.Now()
	m.budget = budget
	m.iterations.Store(0)
	m.expansions.Store(0)
	m.terminalHits.Store(0)
}

func (m *collector) SetTreeReused(value bool) {
	m.isTreeReused.Store(value)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) AddTerminalHit() {
	m.terminalHits.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Budget:       m.budget,
		Duration:     time.Since(m.startTime),
		Iterations:   int(m.iterations.Load()),
		Expansions:   int(m.expansions.Load()),
		TerminalHits: int(m.terminalHits.Load()),
		IsTreeReused: m.isTreeReused.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(budget int)         {}
func (m *dummyCollector) SetTreeReused(value bool) {}
func (m *dummyCollector) AddIteration()            {}
func (m *dummyCollector) AddExpansion()            {}
func (m *dummyCollector) AddTerminalHit()          {}
func (m *dummyCollector) Complete() SearchMetric   { return SearchMetric{} }
