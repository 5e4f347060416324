package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithInitialDelay(10*time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
	// MaxRetries counts retries after the first attempt.
	assert.Equal(t, 4, attempts)
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		return errors.New("error")
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_OnRetry(t *testing.T) {
	t.Parallel()
	var seen []int
	_ = WithExponentialBackoff(context.Background(), func() error {
		return errors.New("error")
	},
		WithMaxRetries(2),
		WithInitialDelay(time.Millisecond),
		WithMultiplier(1),
		WithOnRetry(func(attempt int, _ error) { seen = append(seen, attempt) }),
	)

	// No callback after the final attempt.
	assert.Equal(t, []int{1, 2}, seen)
}

func TestWithExponentialBackoff_DelayCappedAtMax(t *testing.T) {
	t.Parallel()
	attempts := 0
	start := time.Now()
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	},
		WithInitialDelay(10*time.Millisecond),
		WithMultiplier(10),
		WithMaxDelay(20*time.Millisecond),
	)

	require.NoError(t, err)
	// 10ms + 20ms + 20ms; without the cap it would be 10ms + 100ms + 1s.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	original := errors.New("test error")
	err := Fatal(original)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, original.Error(), err.Error())
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"regular error", errors.New("regular"), false},
		{"fatal error", Fatal(errors.New("fatal")), true},
		{"joined fatal error", errors.Join(Fatal(errors.New("base")), errors.New("more")), true},
		{"fmt wrapped fatal error", fmt.Errorf("context: %w", Fatal(errors.New("base"))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestFatalError_Unwrap(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("sentinel error")
	wrapped := fmt.Errorf("context: %w", Fatal(sentinel))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, sentinel, errors.Unwrap(Fatal(sentinel)))
}
