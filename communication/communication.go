package communication

import (
	"context"
	"time"
)

// Communicator is the coordinator's end of the messaging fabric.
type Communicator interface {
	// PublishState hands a prompt to the agent of prompt.Turn. An unread
	// prompt for that agent is replaced, so an agent never has more than one
	// pending.
	PublishState(ctx context.Context, prompt Prompt) error
	// ReceiveAction waits at most timeout for an action from either agent.
	ReceiveAction(ctx context.Context, timeout time.Duration) (Action, error)
	Render(ctx context.Context, event RenderEvent) error
}

// Link is an agent's end of the messaging fabric.
type Link interface {
	// ReceiveState waits at most timeout for the next prompt.
	ReceiveState(ctx context.Context, timeout time.Duration) (Prompt, error)
	SendAction(ctx context.Context, action Action) error
}
