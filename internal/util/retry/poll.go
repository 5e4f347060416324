package retry

import (
	"context"
	"fmt"
	"time"
)

// CheckFunc reports whether the polled condition holds.
// A non-fatal error counts as "not yet"; a Fatal error stops polling.
type CheckFunc func(ctx context.Context) (bool, error)

// PollConfig holds polling configuration.
type PollConfig struct {
	// Interval is the fixed delay between checks. Zero polls in a tight loop.
	Interval time.Duration

	// Tries is the maximum number of checks. Zero means no limit.
	Tries int
}

// PollOption is a functional option for polling configuration.
type PollOption func(*PollConfig)

// WithInterval sets the delay between checks.
func WithInterval(d time.Duration) PollOption {
	return func(c *PollConfig) {
		c.Interval = d
	}
}

// WithTries sets the check budget. Zero or negative means unbounded.
func WithTries(n int) PollOption {
	return func(c *PollConfig) {
		if n < 0 {
			n = 0
		}
		c.Tries = n
	}
}

// ExhaustedError is returned when the check budget runs out before the
// condition holds.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("condition not met after %d checks: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("condition not met after %d checks", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Poll runs check until it returns true, returns a Fatal error, the try
// budget is spent, or ctx is done. It returns the number of checks made.
//
// The interval is slept between checks, never after the last one, so a
// budget of n checks with interval d takes roughly (n-1)*d.
func Poll(ctx context.Context, check CheckFunc, opts ...PollOption) (int, error) {
	cfg := &PollConfig{Interval: time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts++
		ok, err := check(ctx)
		if err != nil {
			if IsFatal(err) {
				return attempts, err
			}
			lastErr = err
		} else if ok {
			return attempts, nil
		}

		if cfg.Tries > 0 && attempts >= cfg.Tries {
			return attempts, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
		}

		if err := Sleep(ctx, cfg.Interval); err != nil {
			return attempts, err
		}
	}
}
