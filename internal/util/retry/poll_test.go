package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_SucceedsImmediately(t *testing.T) {
	t.Parallel()
	attempts, err := Poll(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	}, WithInterval(time.Hour), WithTries(3))

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPoll_ExhaustsBudget(t *testing.T) {
	t.Parallel()
	calls := 0
	attempts, err := Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, nil
	}, WithInterval(time.Millisecond), WithTries(5))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, 5, calls)
}

func TestPoll_TightLoop(t *testing.T) {
	t.Parallel()
	calls := 0
	start := time.Now()
	_, err := Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 50, nil
	}, WithInterval(0), WithTries(100))

	require.NoError(t, err)
	assert.Equal(t, 50, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPoll_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()
	calls := 0
	attempts, err := Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("not found yet")
		}
		return true, nil
	}, WithInterval(time.Millisecond), WithTries(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestPoll_ExhaustedKeepsLastError(t *testing.T) {
	t.Parallel()
	transient := errors.New("throttled")
	_, err := Poll(context.Background(), func(context.Context) (bool, error) {
		return false, transient
	}, WithInterval(0), WithTries(2))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, transient)
}

func TestPoll_FatalErrorStops(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, Fatal(errors.New("access denied"))
	}, WithInterval(0), WithTries(10))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, calls)
}

func TestPoll_Unbounded(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 25, nil
	}, WithInterval(0), WithTries(0))

	require.NoError(t, err)
	assert.Equal(t, 25, calls)
}

func TestPoll_CancelledBeforeFirstCheck(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	attempts, err := Poll(ctx, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
	assert.Zero(t, calls)
}

func TestPoll_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Poll(ctx, func(context.Context) (bool, error) {
		return false, nil
	}, WithInterval(time.Hour))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
