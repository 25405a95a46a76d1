package metrics

import (
	"sync/atomic"
	"time"

	"dotsandboxes/game"
)

// SearchMetric describes a single move decision.
type SearchMetric struct {
	Depth      int
	Duration   time.Duration
	Nodes      int // Positions visited, root children included
	Leaves     int // Positions scored by the evaluation
	Candidates int // Legal moves at the root
	Ties       int // Root moves sharing the best value
}

type MoveMetric struct {
	Step      int
	Player    game.Player
	Line      game.Line
	Completed int // Boxes completed by the move
	SearchMetric
}

type GameMetric struct {
	MatchID        string
	StartingPlayer game.Player
	Winner         game.Player // None on a tie or an aborted game
	Scores         game.ScoreBoard
	Aborted        bool
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(depth int)
	AddNode()
	AddLeaf()
	SetRoot(candidates, ties int)
	Complete() SearchMetric
}

type collector struct {
	depth      int
	startTime  time.Time
	nodes      atomic.Int64
	leaves     atomic.Int64
	candidates atomic.Int64
	ties       atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(depth int) {
	m.startTime = time.Now()
	m.depth = depth
	m.nodes.Store(0)
	m.leaves.Store(0)
	m.candidates.Store(0)
	m.ties.Store(0)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddLeaf() {
	m.leaves.Add(1)
}

func (m *collector) SetRoot(candidates, ties int) {
	m.candidates.Store(int64(candidates))
	m.ties.Store(int64(ties))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Depth:      m.depth,
		Duration:   time.Since(m.startTime),
		Nodes:      int(m.nodes.Load()),
		Leaves:     int(m.leaves.Load()),
		Candidates: int(m.candidates.Load()),
		Ties:       int(m.ties.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(depth int)              {}
func (m *dummyCollector) AddNode()                     {}
func (m *dummyCollector) AddLeaf()                     {}
func (m *dummyCollector) SetRoot(candidates, ties int) {}
func (m *dummyCollector) Complete() SearchMetric       { return SearchMetric{} }
