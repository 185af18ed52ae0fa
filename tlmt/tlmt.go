package tlmt

import (
	"context"
	"time"
)

// Event is one anonymous usage event.
type Event struct {
	Name string
	At   time.Time
	Data map[string]any
}

func NewEvent(name string, data map[string]any) Event {
	return Event{
		Name: name,
		At:   time.Now().UTC(),
		Data: data,
	}
}

// Telemetry sends anonymous usage events. Implementations must never block
// the caller on delivery failures.
type Telemetry interface {
	Send(ctx context.Context, event Event) error
	Close() error
}

type noop struct{}

func (noop) Send(context.Context, Event) error { return nil }
func (noop) Close() error                      { return nil }

// NewNoop returns a telemetry sink that discards everything. Used when
// telemetry is disabled.
func NewNoop() Telemetry {
	return noop{}
}
