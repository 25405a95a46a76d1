package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dotsandboxes/communication"
	"dotsandboxes/game"
	"dotsandboxes/meta"
	"dotsandboxes/searcher/agent"

	"github.com/rs/zerolog/log"
)

// ErrAgentFault reports a panic inside an agent's decision.
var ErrAgentFault = errors.New("agent fault")

type Option func(p *Player)

// Player runs one agent's decision loop against the coordinator.
type Player struct {
	ID    game.Player
	Link  communication.Link
	Agent agent.Agent
	idle  time.Duration
}

// WithIdleTimeout bounds how long the player waits for its next prompt.
func WithIdleTimeout(idle time.Duration) Option {
	return func(p *Player) {
		if idle > 0 {
			p.idle = idle
		}
	}
}

// NewPlayer creates a new Player instance.
func NewPlayer(id game.Player, link communication.Link, a agent.Agent, options ...Option) *Player {
	if !id.Valid() {
		panic(fmt.Sprintf("player needs an id, got %s", id))
	}
	if a == nil {
		panic("player needs an agent")
	}
	p := &Player{
		ID:    id,
		Link:  link,
		Agent: a,
		idle:  meta.DEADLINE,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Play waits for prompts and answers each with the agent's move. It returns
// nil when ctx is done or the agent has no move left, ErrProtocolTimeout
// when no prompt arrives in time, and ErrAgentFault when the agent panics.
func (p *Player) Play(ctx context.Context) error {
	for {
		prompt, err := p.Link.ReceiveState(ctx, p.idle)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warn().Err(err).Msgf("player %s stops waiting", p.ID)
			return err
		}

		action, ok, err := p.TakeTurn(prompt)
		if err != nil {
			log.Error().Err(err).Msgf("exception in agent %s", p.ID)
			return err
		}
		if !ok {
			log.Info().Msgf("player %s has no possible actions, ending loop", p.ID)
			return nil
		}

		if err := p.Link.SendAction(ctx, action); err != nil {
			return nil
		}
	}
}

// TakeTurn decides on an action for the prompted board.
func (p *Player) TakeTurn(prompt communication.Prompt) (action communication.Action, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: player %s: %v", ErrAgentFault, p.ID, r)
		}
	}()

	if prompt.Turn != p.ID {
		log.Warn().Msgf("player %s prompted for %s's turn", p.ID, prompt.Turn)
	}
	line, metric, ok := p.Agent.FindMove(prompt.Board, p.ID)
	if !ok {
		return communication.Action{}, false, nil
	}
	return communication.Action{Seq: prompt.Seq, Player: p.ID, Line: line, Search: metric}, true, nil
}
