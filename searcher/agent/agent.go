package agent

import (
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
)

type Agent interface {
	// FindMove returns a line for player to draw on board and the search
	// metrics (if collected). ok is false when no line is left.
	FindMove(board *game.Board, player game.Player) (line game.Line, metric metrics.SearchMetric, ok bool)
}
