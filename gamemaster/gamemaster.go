package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dotsandboxes/communication"
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ErrInvalidMove marks an action from a player who is not to move, or for a
// line that cannot be drawn. Such actions are discarded, never fatal.
var ErrInvalidMove = errors.New("invalid move")

type Option func(gm *GameMaster)

// GameMaster is the sole owner of the canonical board. It prompts the agent
// whose turn it is, validates and applies its action, and streams render
// events.
type GameMaster struct {
	Communicator communication.Communicator

	mu       sync.Mutex // Guards board, turn, step and moves
	board    *game.Board
	turn     game.Player
	starting game.Player
	step     int
	moves    []metrics.MoveMetric

	matchID  string
	deadline time.Duration
	pacing   time.Duration
	rand     *rand.Rand
}

// Outcome is the result of a match. Scores stay zero when Aborted.
type Outcome struct {
	Starting game.Player
	Scores   game.ScoreBoard
	Aborted  bool
	Steps    int
	Moves    []metrics.MoveMetric
}

// WithDeadline bounds how long an agent may take to answer a prompt.
func WithDeadline(deadline time.Duration) Option {
	return func(gm *GameMaster) {
		if deadline > 0 {
			gm.deadline = deadline
		}
	}
}

// WithPacing sets the pause after each applied move.
func WithPacing(pacing time.Duration) Option {
	return func(gm *GameMaster) {
		if pacing >= 0 {
			gm.pacing = pacing
		}
	}
}

// WithRand sets the source used to draw the starting player when none is given.
func WithRand(r *rand.Rand) Option {
	return func(gm *GameMaster) {
		if r != nil {
			gm.rand = r
		}
	}
}

func WithMatchID(id string) Option {
	return func(gm *GameMaster) {
		gm.matchID = id
	}
}

// NewGameMaster creates a coordinator for a fresh board on grid. A starting
// player of game.None is drawn uniformly at random.
func NewGameMaster(comm communication.Communicator, grid *game.Grid, starting game.Player, options ...Option) *GameMaster {
	gm := &GameMaster{ // Default values
		Communicator: comm,
		board:        game.NewBoard(grid),
		deadline:     meta.DEADLINE,
		pacing:       meta.PACING,
	}
	for _, option := range options {
		option(gm)
	}
	if gm.rand == nil {
		gm.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if !starting.Valid() {
		starting = game.Players[gm.rand.Intn(len(game.Players))]
	}
	gm.starting = starting
	gm.turn = starting
	return gm
}

func (gm *GameMaster) Starting() game.Player {
	return gm.starting
}

// Turn returns the player currently to move.
func (gm *GameMaster) Turn() game.Player {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return gm.turn
}

// Snapshot returns a deep copy of the canonical board.
func (gm *GameMaster) Snapshot() *game.Board {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return gm.board.Copy()
}

// CheckGameOver reports whether every box is owned, with the final scores.
func (gm *GameMaster) CheckGameOver() (game.ScoreBoard, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return gm.board.Tally(), gm.board.IsTerminal()
}

// RunGame drives the match until every box is owned, or until a participant
// misses the deadline or ctx is done. In the latter cases the returned
// outcome is Aborted and the error says why.
//
// Each turn has a single deadline, set when its first prompt goes out.
// Re-prompts after an invalid action only get what is left of it.
func (gm *GameMaster) RunGame(ctx context.Context) (Outcome, error) {
	log.Info().Str("match", gm.matchID).Msgf("player %s is starting", gm.starting)

	var (
		seq int
		due time.Time // Zero until the turn's first prompt
	)
	for {
		if scores, over := gm.CheckGameOver(); over {
			return gm.finish(ctx, scores)
		}

		turn := gm.Turn()
		seq++
		if due.IsZero() {
			due = time.Now().Add(gm.deadline)
		}
		prompt := communication.Prompt{Seq: seq, Board: gm.Snapshot(), Turn: turn}
		if err := gm.Communicator.PublishState(ctx, prompt); err != nil {
			return gm.abort(ctx, fmt.Errorf("prompt %s: %w", turn, err))
		}

		action, err := gm.awaitAction(ctx, seq, due)
		if err != nil {
			if errors.Is(err, communication.ErrProtocolTimeout) {
				log.Error().Str("match", gm.matchID).Msgf("agent %s did not respond in time", turn)
				err = fmt.Errorf("agent %s: %w", turn, err)
			}
			return gm.abort(ctx, err)
		}

		err = gm.handleAction(ctx, action)
		if errors.Is(err, ErrInvalidMove) {
			// Discard and prompt the current mover again
			log.Warn().Str("match", gm.matchID).Err(err).Msg("discarding action")
			continue
		}
		if err != nil {
			return gm.abort(ctx, err)
		}
		due = time.Time{}

		if err := gm.pace(ctx); err != nil {
			return gm.abort(ctx, err)
		}
	}
}

// awaitAction returns the first action answering prompt seq. Answers to
// earlier prompts were decided on outdated boards and are dropped.
func (gm *GameMaster) awaitAction(ctx context.Context, seq int, due time.Time) (communication.Action, error) {
	for {
		action, err := gm.Communicator.ReceiveAction(ctx, time.Until(due))
		if err != nil {
			return communication.Action{}, err
		}
		if action.Seq == seq {
			return action, nil
		}
		log.Debug().Str("match", gm.matchID).Int("seq", action.Seq).Int("current", seq).
			Msgf("dropping stale action of player %s", action.Player)
	}
}

// handleAction validates and applies an action under the lock, emits the
// update event and settles the next turn.
func (gm *GameMaster) handleAction(ctx context.Context, action communication.Action) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if err := gm.board.Check(action.Move(), gm.turn); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	if err := gm.board.Apply(action.Player, action.Line); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	completed := gm.board.ResolveCompletions(action.Player)
	gm.step++
	gm.moves = append(gm.moves, metrics.MoveMetric{
		Step:         gm.step,
		Player:       action.Player,
		Line:         action.Line,
		Completed:    len(completed),
		SearchMetric: action.Search,
	})
	log.Debug().Str("match", gm.matchID).Int("step", gm.step).Int("completed", len(completed)).
		Msgf("player %s drew %s", action.Player, action.Line)

	if err := gm.Communicator.Render(ctx, communication.NewUpdate(gm.matchID, gm.step, gm.board)); err != nil {
		return fmt.Errorf("render update: %w", err)
	}

	// Completing a box earns another move
	if len(completed) == 0 {
		gm.turn = gm.turn.Opponent()
	}
	return nil
}

func (gm *GameMaster) pace(ctx context.Context) error {
	if gm.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(gm.pacing)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (gm *GameMaster) finish(ctx context.Context, scores game.ScoreBoard) (Outcome, error) {
	outcome := gm.outcome()
	outcome.Scores = scores

	if err := gm.Communicator.Render(ctx, communication.NewGameOver(gm.matchID, outcome.Steps, scores)); err != nil {
		return outcome, fmt.Errorf("render game over: %w", err)
	}
	log.Info().Str("match", gm.matchID).Int("A", scores.A).Int("B", scores.B).Msgf("game over, winner: %s", scores.Winner())
	return outcome, nil
}

func (gm *GameMaster) abort(ctx context.Context, cause error) (Outcome, error) {
	outcome := gm.outcome()
	outcome.Aborted = true

	// The match is over either way; the renderer still learns why
	if err := gm.Communicator.Render(context.WithoutCancel(ctx), communication.NewAborted(gm.matchID, outcome.Steps, cause.Error())); err != nil {
		log.Warn().Str("match", gm.matchID).Err(err).Msg("could not render abort")
	}
	log.Error().Str("match", gm.matchID).Err(cause).Msg("match aborted")
	return outcome, cause
}

func (gm *GameMaster) outcome() Outcome {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	moves := make([]metrics.MoveMetric, len(gm.moves))
	copy(moves, gm.moves)
	return Outcome{
		Starting: gm.starting,
		Steps:    gm.step,
		Moves:    moves,
	}
}
