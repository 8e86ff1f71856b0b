package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// Retry defaults used when a RetryPolicy field is zero.
const (
	DefaultRetryMaxAttempts = 50
	DefaultRetryDelay       = 5 * time.Second
)

// RetryPolicy bounds the outer retry loop around a remote fetch.
// Attempts are spaced by a constant Delay; there is no backoff growth.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger
}

// withDefaults returns a copy with zero fields filled in.
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryMaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Run calls fn until it succeeds or MaxAttempts calls have failed.
// It returns the number of attempts made. After exhaustion the error wraps
// domain.ErrRetryBudgetExhausted and the last failure; a cancelled context
// stops the loop with the context error.
func (p RetryPolicy) Run(ctx context.Context, op string, fn func(ctx context.Context) error) (int, error) {
	p = p.withDefaults()

	backoff := retry.WithMaxRetries(uint64(p.MaxAttempts-1), retry.NewConstant(p.Delay))

	attempts := 0
	var lastErr error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		p.Logger.Warn("attempt failed",
			"op", op,
			"attempt", attempts,
			"max_attempts", p.MaxAttempts,
			"error", err,
		)
		if ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return attempts, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return attempts, err
	}
	if attempts >= p.MaxAttempts {
		p.Logger.Error("retry budget exhausted",
			"op", op,
			"attempts", attempts,
			"error", lastErr,
		)
		return attempts, fmt.Errorf("%s: %w after %d attempts: %w", op, domain.ErrRetryBudgetExhausted, attempts, lastErr)
	}
	return attempts, err
}
