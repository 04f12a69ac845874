// Package taskgroup runs independent tasks on a bounded number of goroutines
// and hands back one result per task.
package taskgroup

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

// Run executes tasks with at most limit running at once; limit 1 runs them
// one after the other and limit <= 0 means no bound. Results are returned in
// submission order. A task that fails or panics only sets its own Err, the
// others keep running. Tasks not yet started when ctx is done are not run.
func Run[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = run(ctx, i, task)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func run[T any](ctx context.Context, i int, task Task[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: errors.Errorf("task %d panicked: %v", i, r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Result[T]{Err: err}
	}
	v, err := task(ctx)
	return Result[T]{Value: v, Err: err}
}
