package sinks

import "context"

// Sink delivers change-request events to a downstream destination.
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, evt Event) error
	Close() error
}
