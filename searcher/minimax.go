package searcher

import (
	"math"
	"time"

	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/utils"

	"golang.org/x/exp/rand"
)

type Option func(m *Minimax)

// Minimax is not safe for concurrent use: each agent owns its own instance.
type Minimax struct {
	depth   int
	rand    *rand.Rand
	metrics metrics.Collector
}

func WithDepth(depth int) Option {
	return func(m *Minimax) {
		if depth > 0 {
			m.depth = depth
		}
	}
}

// WithRand sets the source used for move shuffling and tie-breaking.
func WithRand(r *rand.Rand) Option {
	return func(m *Minimax) {
		if r != nil {
			m.rand = r
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *Minimax) {
		m.rand = rand.New(rand.NewSource(seed))
	}
}

func WithMetrics() Option {
	return func(m *Minimax) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMinimax(options ...Option) *Minimax {
	m := &Minimax{ // Default values
		depth:   DefaultDepth,
		metrics: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.rand == nil {
		m.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return m
}

func (m *Minimax) Depth() int {
	return m.depth
}

type scored struct {
	line  game.Line
	value int
}

// FindMove returns a line for player to draw on board, chosen uniformly among
// the root moves with the best minimax value. ok is false when no line is
// left. board is never modified.
func (m *Minimax) FindMove(board *game.Board, player game.Player) (line game.Line, metric metrics.SearchMetric, ok bool) {
	m.metrics.Start(m.depth)

	values := m.rootValues(board, player)
	if len(values) == 0 {
		return game.Line{}, m.metrics.Complete(), false
	}

	best := math.MinInt
	var ties []game.Line
	for _, s := range values {
		if s.value > best {
			best = s.value
			ties = []game.Line{s.line}
		} else if s.value == best {
			ties = append(ties, s.line)
		}
	}
	m.metrics.SetRoot(len(values), len(ties))

	return utils.Pick(m.rand, ties), m.metrics.Complete(), true
}

// rootValues scores every legal root move, in shuffled order.
func (m *Minimax) rootValues(board *game.Board, player game.Player) []scored {
	work := board.Copy()
	moves := work.LegalMoves()
	utils.Shuffle(m.rand, moves)

	values := make([]scored, 0, len(moves))
	for _, line := range moves {
		completed := m.play(work, player, line)
		value := m.minimax(work, m.depth-1, len(completed) > 0, player)
		work.Unplay(line, completed)
		values = append(values, scored{line: line, value: value})
	}
	return values
}

func (m *Minimax) minimax(b *game.Board, depth int, maximizing bool, root game.Player) int {
	if depth <= 0 || b.IsTerminal() {
		m.metrics.AddLeaf()
		return evaluate(b, root)
	}

	moves := b.LegalMoves()
	utils.Shuffle(m.rand, moves)

	mover := root
	value := math.MinInt
	if !maximizing {
		mover = root.Opponent()
		value = math.MaxInt
	}

	for _, line := range moves {
		completed := m.play(b, mover, line)
		// A completion keeps the move with the same side
		next := maximizing
		if len(completed) == 0 {
			next = !maximizing
		}
		eval := m.minimax(b, depth-1, next, root)
		b.Unplay(line, completed)

		if maximizing {
			value = max(value, eval)
		} else {
			value = min(value, eval)
		}
	}
	return value
}

func (m *Minimax) play(b *game.Board, p game.Player, line game.Line) []game.Box {
	m.metrics.AddNode()
	completed, err := b.Play(p, line)
	if err != nil {
		panic(err) // lines come from LegalMoves
	}
	return completed
}
