package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/zen-systems/lexgate/pkg/provider"
)

// ProviderError wraps a backend failure with status metadata so the retry
// executor can classify it as retryable or terminal.
type ProviderError struct {
	Provider  provider.Provider
	Status    int
	Temporary bool
	Terminal  bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: provider error (status=%d)", e.Provider, e.Status)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsRetryable reports whether an attempt failure is safe to retry:
// timeouts, transient network failures, and explicit rate-limit signals.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if provErr.Terminal {
			return false
		}
		if provErr.Temporary {
			return true
		}
		if provErr.Status == 429 || (provErr.Status >= 500 && provErr.Status <= 599) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a failure must abort the current candidate
// immediately: authentication and malformed-request failures.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if provErr.Terminal {
			return true
		}
		switch provErr.Status {
		case 400, 401, 403, 404, 422:
			return true
		}
	}
	return false
}

// ExhaustedError is raised when every eligible candidate failed or was
// skipped by its circuit breaker.
type ExhaustedError struct {
	Category  provider.Category
	Attempted []provider.Provider
	Skipped   []provider.Provider
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers exhausted for operation %q (attempted: %s; skipped: %s)",
		e.Category, joinProviders(e.Attempted), joinProviders(e.Skipped))
}

// BudgetExceededError is raised when the per-call wall-clock budget elapses,
// regardless of remaining candidates.
type BudgetExceededError struct {
	Category provider.Category
	Budget   time.Duration
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("operation %q exceeded its %s budget", e.Category, e.Budget)
}

func joinProviders(ps []provider.Provider) string {
	if len(ps) == 0 {
		return "none"
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
