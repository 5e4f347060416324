package async

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel starts every task concurrently and waits for all of them.
// Errors from all failing tasks are joined, ordered by task name so the
// result does not depend on scheduling.
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		name string
		err  error
	}

	results := make(chan result, len(tasks))
	for _, task := range tasks {
		go func() {
			results <- result{name: task.Name, err: task.Func(ctx)}
		}()
	}

	var failed []result
	for range len(tasks) {
		res := <-results
		if res.err != nil {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	sort.Slice(failed, func(i, j int) bool { return failed[i].name < failed[j].name })
	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.name, f.err))
	}
	return errors.Join(errs...)
}
