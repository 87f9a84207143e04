package link

import (
	"context"
	"time"
)

// LinkEvent is a single link-state transition reported by the switch.
type LinkEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Interface     string    `json:"interface"`
	PreviousState LinkState `json:"previous_state"`
	NewState      LinkState `json:"new_state"`
}

// IsUp reports whether the event is a down to up transition.
func (e *LinkEvent) IsUp() bool {
	return e.PreviousState == LinkStateDown && e.NewState == LinkStateUp
}

type Handler interface {
	Handle(ctx context.Context, event *LinkEvent)
}

type HandlerFunc func(ctx context.Context, event *LinkEvent)

func (f HandlerFunc) Handle(ctx context.Context, event *LinkEvent) {
	f(ctx, event)
}

// Subscription delivers link events to a handler until ctx is done.
type Subscription interface {
	Subscribe(ctx context.Context, handler Handler) error
}
