package agent

import (
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/searcher"
)

type minimaxAgent struct {
	minimax *searcher.Minimax
}

// NewMinimaxAgent returns an agent that plays the minimax choice.
func NewMinimaxAgent(minimax *searcher.Minimax) Agent {
	if minimax == nil {
		panic("minimax agent needs a searcher")
	}
	return minimaxAgent{minimax: minimax}
}

func (a minimaxAgent) FindMove(board *game.Board, player game.Player) (game.Line, metrics.SearchMetric, bool) {
	return a.minimax.FindMove(board, player)
}
