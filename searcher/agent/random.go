package agent

import (
	"time"

	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/utils"

	"golang.org/x/exp/rand"
)

type randomAgent struct {
	rand *rand.Rand
}

// NewRandomAgent returns a baseline agent drawing any free line uniformly.
// A nil source is seeded from the clock.
func NewRandomAgent(r *rand.Rand) Agent {
	if r == nil {
		r = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return randomAgent{rand: r}
}

func (a randomAgent) FindMove(board *game.Board, player game.Player) (game.Line, metrics.SearchMetric, bool) {
	moves := board.LegalMoves()
	if len(moves) == 0 {
		return game.Line{}, metrics.SearchMetric{}, false
	}
	return utils.Pick(a.rand, moves), metrics.SearchMetric{Candidates: len(moves), Ties: len(moves)}, true
}
