package txn

import (
	"context"
	"errors"
	"time"
)

// ErrConflict marks a detected write conflict (capacity race, stale read).
// A Runner re-invokes the closure when it sees this error.
var ErrConflict = errors.New("transaction conflict")

// Runner executes fn atomically. fn may be invoked more than once, so it
// must be side-effect free outside the repositories it writes through.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RetryConfig bounds how often a conflicting transaction is retried.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

func NormalizeRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	return cfg
}

// IsConflict reports whether err should trigger a transparent retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
