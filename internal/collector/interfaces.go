package collector

import (
	"context"

	"github.com/samvad-hq/snow-change-connector/pkg/sinks"
)

// EventSender delivers events downstream and reports how many sinks accepted them.
type EventSender interface {
	Send(ctx context.Context, evt sinks.Event) (int, error)
}

// Deduper remembers records that were already forwarded.
type Deduper interface {
	SeenRecord(table, id string) (bool, error)
	MarkRecord(table, id string) error
}
