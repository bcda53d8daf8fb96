package orchestrator

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

// newBackOff builds a bounded-exponential backoff with jitter from the
// configured retry policy (spec §4.5 "Retry and tie-breaks", §7
// "bounded-exponential backoff with jitter"). MaxElapsedTime is left at
// zero (unbounded) since the attempt count, not elapsed time, is what
// bounds retries: op runs at most cfg.MaxAttempts times in total.
func newBackOff(cfg config.RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		b.Multiplier = cfg.Multiplier
	}
	b.MaxElapsedTime = 0
	b.Reset()

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(maxAttempts-1))
}

// retryExternalCall retries op using the configured backoff policy,
// honouring shouldRetry's category-based should_retry predicate (spec §7:
// "retried with bounded-exponential backoff and jitter, honouring a
// should_retry predicate; after exhaustion the original error is
// surfaced") and the control gate at each retry boundary.
func (e *Engine) retryExternalCall(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(newBackOff(e.retryCfg), ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		if gateErr := e.checkGate(ctx); gateErr != nil {
			lastErr = gateErr
			return backoff.Permanent(gateErr)
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, policy)

	if err != nil {
		return lastErr
	}
	return nil
}
