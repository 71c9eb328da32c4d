package events

import "context"

// Event names broadcast to connected clients.
const (
	ProductCreated = "product.created"
	RequestCreated = "request.created"
	RequestUpdated = "request.updated"
	MessageSent    = "message.sent"
)

// Event is a typed notification about a committed mutation.
// Payload is the mutated record (for RequestUpdated, only {id, status}).
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// Sink receives domain events after their write commits. Publish is
// fire-and-forget: implementations log failures and never report them
// to the caller.
type Sink interface {
	Publish(ctx context.Context, ev Event)
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Publish(ctx, ev)
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
