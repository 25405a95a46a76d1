package engine

import (
	"context"
	"time"

	"dotsandboxes/communication"
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
)

type Runner interface {
	// Run plays one match till every box is owned or a participant fails,
	// handing every render event to observe in order.
	Run(ctx context.Context, observe func(communication.RenderEvent)) (Result, error)
}

// Result summarizes a match. Scores stay zero when Aborted.
type Result struct {
	MatchID   string
	Starting  game.Player
	Scores    game.ScoreBoard
	Aborted   bool
	Moves     []metrics.MoveMetric
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Winner returns the player with more boxes, or None on a tie or an aborted match.
func (r Result) Winner() game.Player {
	if r.Aborted {
		return game.None
	}
	return r.Scores.Winner()
}

func (r Result) GameMetric() metrics.GameMetric {
	return metrics.GameMetric{
		MatchID:        r.MatchID,
		StartingPlayer: r.Starting,
		Winner:         r.Winner(),
		Scores:         r.Scores,
		Aborted:        r.Aborted,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Duration:       r.Duration,
		TotalMoves:     len(r.Moves),
	}
}
