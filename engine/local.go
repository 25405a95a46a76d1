package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dotsandboxes/communication"
	"dotsandboxes/game"
	"dotsandboxes/gamemaster"
	"dotsandboxes/meta"
	"dotsandboxes/player"
	"dotsandboxes/searcher/agent"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

type Option func(e *Engine)

// Engine runs matches between two agents in one process: a coordinator and
// one player loop per agent, talking over a fresh fabric each match.
type Engine struct {
	Grid   *game.Grid
	Agents map[game.Player]agent.Agent

	starting game.Player
	deadline time.Duration
	pacing   time.Duration
	idle     time.Duration
	rand     *rand.Rand
}

// WithStartingPlayer fixes who moves first. By default it is drawn at random.
func WithStartingPlayer(p game.Player) Option {
	return func(e *Engine) {
		e.starting = p
	}
}

func WithDeadline(deadline time.Duration) Option {
	return func(e *Engine) {
		if deadline > 0 {
			e.deadline = deadline
		}
	}
}

func WithPacing(pacing time.Duration) Option {
	return func(e *Engine) {
		if pacing >= 0 {
			e.pacing = pacing
		}
	}
}

// WithIdleTimeout bounds how long a player waits for its next prompt.
func WithIdleTimeout(idle time.Duration) Option {
	return func(e *Engine) {
		if idle > 0 {
			e.idle = idle
		}
	}
}

// WithSeed seeds the draw of the starting player.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rand = rand.New(rand.NewSource(seed))
	}
}

// LocalEngine pairs agentA and agentB on a grid.
func LocalEngine(grid *game.Grid, agentA, agentB agent.Agent, options ...Option) *Engine {
	if agentA == nil || agentB == nil {
		panic("need two agents")
	}

	e := &Engine{
		Grid: grid,
		Agents: map[game.Player]agent.Agent{
			game.PlayerA: agentA,
			game.PlayerB: agentB,
		},
		deadline: meta.DEADLINE,
		pacing:   meta.PACING,
	}
	for _, option := range options {
		option(e)
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if e.idle == 0 {
		// A waiting player may sit through a whole run of opponent moves
		e.idle = e.deadline + e.pacing*time.Duration(grid.NumLines())
	}
	return e
}

// Run plays one match. The returned error joins the coordinator's error with
// any player failure; it is nil for a completed match.
func (e *Engine) Run(ctx context.Context, observe func(communication.RenderEvent)) (Result, error) {
	matchID := uuid.NewString()
	// Room for every update plus the closing event
	fabric := communication.NewFabric(e.Grid.NumLines() + 1)
	gm := gamemaster.NewGameMaster(fabric, e.Grid, e.starting,
		gamemaster.WithDeadline(e.deadline),
		gamemaster.WithPacing(e.pacing),
		gamemaster.WithRand(e.rand),
		gamemaster.WithMatchID(matchID),
	)

	players := make([]*player.Player, 0, len(game.Players))
	for _, id := range game.Players {
		players = append(players, player.NewPlayer(id, fabric.Link(id), e.Agents[id], player.WithIdleTimeout(e.idle)))
	}

	log.Info().Str("match", matchID).Msgf("starting %dx%d match", e.Grid.Rows, e.Grid.Cols)
	start := time.Now()

	playCtx, stopPlayers := context.WithCancel(ctx)
	defer stopPlayers()

	var (
		g          errgroup.Group
		outcome    gamemaster.Outcome
		runErr     error
		playerErrs = make([]error, len(players))
	)
	g.Go(func() error {
		defer fabric.CloseRender()
		defer stopPlayers()
		outcome, runErr = gm.RunGame(ctx)
		return runErr
	})
	for i, p := range players {
		g.Go(func() error {
			if err := p.Play(playCtx); err != nil {
				playerErrs[i] = fmt.Errorf("player %s: %w", p.ID, err)
			}
			return playerErrs[i]
		})
	}
	g.Go(func() error {
		for event := range fabric.RenderStream() {
			if observe != nil {
				observe(event)
			}
		}
		return nil
	})
	_ = g.Wait()

	end := time.Now()
	result := Result{
		MatchID:   matchID,
		Starting:  outcome.Starting,
		Scores:    outcome.Scores,
		Aborted:   outcome.Aborted,
		Moves:     outcome.Moves,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	return result, errors.Join(append([]error{runErr}, playerErrs...)...)
}
