package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryClient decorates a Client with bounded retries. Completion calls are
// idempotent and side-effect free, so retrying is safe. With MaxRetries 0
// the decorator is a pass-through, which is the default behaviour.
type RetryClient struct {
	inner      Client
	maxRetries int
	interval   time.Duration
}

// WithRetries wraps inner. interval doubles after each failed attempt.
func WithRetries(inner Client, maxRetries int, interval time.Duration) *RetryClient {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &RetryClient{inner: inner, maxRetries: maxRetries, interval: interval}
}

func (c *RetryClient) CompleteText(ctx context.Context, system, user string) (string, error) {
	var out string
	err := c.do(ctx, func() error {
		var err error
		out, err = c.inner.CompleteText(ctx, system, user)
		return err
	})
	return out, err
}

func (c *RetryClient) CompleteJSON(ctx context.Context, system, user string, schema Schema) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, func() error {
		var err error
		out, err = c.inner.CompleteJSON(ctx, system, user, schema)
		return err
	})
	return out, err
}

func (c *RetryClient) do(ctx context.Context, call func() error) error {
	delay := c.interval
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if attempt >= c.maxRetries {
			return lastErr
		}

		log.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("completion failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
