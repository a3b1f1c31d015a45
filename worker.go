package schedkit

import (
	"context"
)

// Worker is a parallel execution context owned by a TaskPool.
//
// A worker accepts exactly one task at a time and returns exactly one
// result or error per task. Returning an error that matches
// ErrWorkerFatal tells the pool the worker itself is broken; any other
// error only fails the task.
type Worker[In, Out any] interface {
	Run(ctx context.Context, in In) (Out, error)
	Close() error
}

// WorkerFactory creates the worker for slot id. It is called once per
// slot when the pool starts and again whenever that slot's worker crashes.
type WorkerFactory[In, Out any] func(id int) (Worker[In, Out], error)

// FuncWorker runs tasks in-process by calling the wrapped function.
type FuncWorker[In, Out any] func(ctx context.Context, in In) (Out, error)

func (f FuncWorker[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

func (f FuncWorker[In, Out]) Close() error { return nil }

// FuncFactory returns a factory producing FuncWorkers around fn.
func FuncFactory[In, Out any](fn func(ctx context.Context, in In) (Out, error)) WorkerFactory[In, Out] {
	return func(int) (Worker[In, Out], error) {
		return FuncWorker[In, Out](fn), nil
	}
}
