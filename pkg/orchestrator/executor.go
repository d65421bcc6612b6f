package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/zen-systems/lexgate/pkg/provider"
)

type attemptOutcome[T any] struct {
	value T
	err   error
}

// attempt drives one candidate through the retry/timeout executor: each try
// runs under the per-attempt deadline, retryable failures back off and retry
// up to the strategy ceiling, terminal failures abort immediately.
// Returns the number of retries consumed alongside the value or final error.
func attempt[T any](ctx context.Context, o *Orchestrator, exec Executor[T], p provider.Provider, strategy Strategy) (T, int, error) {
	var zero T

	if lim := o.registry.Limiter(p); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return zero, 0, err
		}
	}

	var lastErr error
	for try := 0; try <= strategy.MaxRetries; try++ {
		value, err := runOnce(ctx, exec, p, strategy.AttemptTimeout)
		if err == nil {
			return value, try, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, try, ctx.Err()
		}
		if IsTerminal(err) || !IsRetryable(err) || try == strategy.MaxRetries {
			return zero, try, err
		}

		if err := sleepWithContext(ctx, jitteredBackoff(o.retry, try)); err != nil {
			return zero, try, err
		}
	}
	return zero, strategy.MaxRetries, lastErr
}

// runOnce races a single call against the per-attempt deadline. The
// underlying call is not guaranteed to stop on timeout; its late result is
// discarded via the buffered channel.
func runOnce[T any](ctx context.Context, exec Executor[T], p provider.Provider, attemptTimeout time.Duration) (T, error) {
	var zero T

	attemptCtx := ctx
	if attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, attemptTimeout)
		defer cancel()
	}

	done := make(chan attemptOutcome[T], 1)
	go func() {
		value, err := exec(attemptCtx, p)
		done <- attemptOutcome[T]{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		return zero, attemptCtx.Err()
	}
}

// jitteredBackoff doubles the base per retry, caps at the maximum, and
// randomizes within [half, full] to avoid synchronized retry storms.
func jitteredBackoff(cfg RetryConfig, try int) time.Duration {
	backoff := cfg.BaseBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 2 * time.Second
	}
	for i := 0; i < try; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			backoff = maxBackoff
			break
		}
	}
	half := backoff / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
