package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration for outbound resolver calls
// (URL expansion, document fetches, Places API requests).
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// Retryer retries a function with exponential backoff. Context cancellation
// is never retried: a dropped inbound connection must abandon in-flight work.
type Retryer struct {
	config RetryConfig
}

func NewRetryer(config RetryConfig) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}

	if config.InitialDelay <= 0 {
		config.InitialDelay = 250 * time.Millisecond
	}

	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}

	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2.0
	}

	return &Retryer{config: config}
}

// NewFetchRetryer returns a retryer tuned for per-request document fetches:
// short delays, few attempts, jitter on.
func NewFetchRetryer() *Retryer {
	return NewRetryer(RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	})
}

// Execute runs fn until it succeeds, the attempts are exhausted, or the
// context is done.
func (r *Retryer) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		lastErr = err

		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}

	return fmt.Errorf("after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *Retryer) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))

	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}

	if r.config.Jitter {
		d += rand.Float64() * 0.1 * d
	}

	return time.Duration(d)
}
