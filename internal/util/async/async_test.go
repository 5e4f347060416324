package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()
	var count atomic.Int32
	task := func(_ context.Context) error {
		count.Add(1)
		return nil
	}

	err := RunParallel(context.Background(), []Task{
		{Name: "default", Func: task},
		{Name: "web", Func: task},
		{Name: "db", Func: task},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunParallel(context.Background(), nil))
	assert.NoError(t, RunParallel(context.Background(), []Task{}))
}

func TestRunParallel_JoinsAllErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("ready timeout")
	err2 := errors.New("address not found")

	err := RunParallel(context.Background(), []Task{
		{Name: "web", Func: func(context.Context) error { return err2 }},
		{Name: "ok", Func: func(context.Context) error { return nil }},
		{Name: "db", Func: func(context.Context) error { return err1 }},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
	assert.Less(t, strings.Index(err.Error(), "db:"), strings.Index(err.Error(), "web:"))
}

func TestRunParallel_RunsConcurrently(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	var started atomic.Int32

	task := func(ctx context.Context) error {
		started.Add(1)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- RunParallel(context.Background(), []Task{{Name: "a", Func: task}, {Name: "b", Func: task}})
	}()

	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	assert.NoError(t, <-done)
}

func TestRunParallel_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunParallel(ctx, []Task{{Name: "task", Func: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}})

	assert.ErrorIs(t, err, context.Canceled)
}
