package communication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dotsandboxes/game"
)

var ErrProtocolTimeout = errors.New("protocol timeout")

// Fabric is the in-process messaging fabric: one state channel per agent, a
// shared action channel and the render stream.
type Fabric struct {
	states  map[game.Player]chan Prompt
	actions chan Action
	render  chan RenderEvent
}

// NewFabric buffers up to renderBuffer render events so a slow renderer
// never holds up the coordinator.
func NewFabric(renderBuffer int) *Fabric {
	f := &Fabric{
		states:  make(map[game.Player]chan Prompt, len(game.Players)),
		actions: make(chan Action, len(game.Players)),
		render:  make(chan RenderEvent, renderBuffer),
	}
	for _, p := range game.Players {
		f.states[p] = make(chan Prompt, 1)
	}
	return f
}

func (f *Fabric) PublishState(ctx context.Context, prompt Prompt) error {
	ch, ok := f.states[prompt.Turn]
	if !ok {
		return fmt.Errorf("publish to %s: %w", prompt.Turn, game.ErrNotAPlayer)
	}
	// Only the coordinator sends, so after dropping a stale prompt the
	// buffer has room.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- prompt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fabric) ReceiveAction(ctx context.Context, timeout time.Duration) (Action, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case a := <-f.actions:
		return a, nil
	case <-timer.C:
		return Action{}, fmt.Errorf("no action within %s: %w", timeout, ErrProtocolTimeout)
	case <-ctx.Done():
		return Action{}, ctx.Err()
	}
}

func (f *Fabric) Render(ctx context.Context, event RenderEvent) error {
	select {
	case f.render <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RenderStream is the renderer's end of the fabric. It is closed by CloseRender.
func (f *Fabric) RenderStream() <-chan RenderEvent {
	return f.render
}

// CloseRender ends the render stream. Call it once the coordinator is done.
func (f *Fabric) CloseRender() {
	close(f.render)
}

// Link returns the agent-side end for player p.
func (f *Fabric) Link(p game.Player) Link {
	return &link{player: p, states: f.states[p], actions: f.actions}
}

type link struct {
	player  game.Player
	states  <-chan Prompt
	actions chan<- Action
}

func (l *link) ReceiveState(ctx context.Context, timeout time.Duration) (Prompt, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p := <-l.states:
		return p, nil
	case <-timer.C:
		return Prompt{}, fmt.Errorf("agent %s got no state within %s: %w", l.player, timeout, ErrProtocolTimeout)
	case <-ctx.Done():
		return Prompt{}, ctx.Err()
	}
}

func (l *link) SendAction(ctx context.Context, action Action) error {
	select {
	case l.actions <- action:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
