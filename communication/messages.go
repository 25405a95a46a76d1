package communication

import (
	"fmt"

	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
)

// Prompt asks the agent of Turn to move. Board is a snapshot the receiver
// owns; it never aliases the canonical board. Seq grows with every prompt of
// a match.
type Prompt struct {
	Seq   int
	Board *game.Board
	Turn  game.Player
}

// Action is an agent's answer to a prompt. Seq echoes the answered prompt.
type Action struct {
	Seq    int
	Player game.Player
	Line   game.Line
	Search metrics.SearchMetric
}

func (a Action) Move() game.Action {
	return game.Action{Player: a.Player, Line: a.Line}
}

type EventKind int

const (
	UpdateEvent EventKind = iota
	GameOverEvent
	AbortedEvent
)

func (k EventKind) String() string {
	switch k {
	case UpdateEvent:
		return "update"
	case GameOverEvent:
		return "game_over"
	case AbortedEvent:
		return "aborted"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// RenderEvent is a message for the external renderer. Updates carry a full
// snapshot, not a delta. Exactly one GameOver or Aborted event ends a match.
type RenderEvent struct {
	Kind    EventKind
	MatchID string
	Step    int // Number of applied moves so far
	Lines   map[game.Line]game.Player
	Boxes   map[game.Box]game.Player
	Scores  game.ScoreBoard // GameOver only
	Reason  string          // Aborted only
}

func NewUpdate(matchID string, step int, board *game.Board) RenderEvent {
	return RenderEvent{
		Kind:    UpdateEvent,
		MatchID: matchID,
		Step:    step,
		Lines:   board.Lines(),
		Boxes:   board.Boxes(),
	}
}

func NewGameOver(matchID string, step int, scores game.ScoreBoard) RenderEvent {
	return RenderEvent{
		Kind:    GameOverEvent,
		MatchID: matchID,
		Step:    step,
		Scores:  scores,
	}
}

func NewAborted(matchID string, step int, reason string) RenderEvent {
	return RenderEvent{
		Kind:    AbortedEvent,
		MatchID: matchID,
		Step:    step,
		Reason:  reason,
	}
}
