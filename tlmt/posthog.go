package tlmt

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

type posthogTelemetry struct {
	client     posthog.Client
	distinctID string
	once       sync.Once
}

// NewPosthog returns a telemetry sink backed by PostHog. The distinct id is a
// random per-process UUID; no request data or place content is ever attached.
func NewPosthog(apiKey, endpoint string) (Telemetry, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing posthog api key")
	}

	cfg := posthog.Config{}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	client, err := posthog.NewWithConfig(apiKey, cfg)
	if err != nil {
		return nil, err
	}

	return &posthogTelemetry{
		client:     client,
		distinctID: uuid.New().String(),
	}, nil
}

func (p *posthogTelemetry) Send(_ context.Context, event Event) error {
	props := posthog.NewProperties()
	for k, v := range event.Data {
		props.Set(k, v)
	}

	return p.client.Enqueue(posthog.Capture{
		DistinctId: p.distinctID,
		Event:      event.Name,
		Timestamp:  event.At,
		Properties: props,
	})
}

func (p *posthogTelemetry) Close() error {
	var err error

	p.once.Do(func() {
		err = p.client.Close()
	})

	return err
}
