package schedkit

import (
	"errors"
	"fmt"

	lg "github.com/Andrej220/go-utils/zlog"
)

var (
	// ErrPoolTerminated is returned by Execute after Terminate.
	ErrPoolTerminated = errors.New("schedkit: pool terminated")

	// ErrWorkerFatal marks a worker transport failure. A worker returning
	// an error matching it is closed and respawned.
	ErrWorkerFatal = errors.New("schedkit: worker failed")

	// ErrNilFactory is returned when a pool is built without a factory.
	ErrNilFactory = errors.New("schedkit: worker factory is nil")

	// ErrNilOperation settles futures whose operation is nil.
	ErrNilOperation = errors.New("schedkit: operation is nil")

	// ErrResultNotFound settles batcher futures whose key is missing
	// from the loader result.
	ErrResultNotFound = errors.New("schedkit: result not found")

	// ErrInvalidPriority is returned when a frame priority cannot be parsed.
	ErrInvalidPriority = errors.New("schedkit: invalid priority")
)

// reportInternalError reports a component failure.
//
// Internal errors are non-task failures such as a worker factory error
// during respawn. If no handler is registered, the error is only logged.
func (o *Options) reportInternalError(e error) {
	lg.FromContext(o.Ctx).Error("internal error", lg.Any("error", e))
	if o.OnInternalError != nil {
		o.OnInternalError(e)
	}
}

// reportTaskError reports an error produced by a fire-and-forget
// callback. Errors that settle a future are never reported here.
func (o *Options) reportTaskError(err error) {
	lg.FromContext(o.Ctx).Warn("task failed", lg.Any("error", err))
	if o.OnTaskError != nil {
		o.OnTaskError(err)
	}
}

// runCallback invokes fn and reports a panic as a task error.
// It returns false if fn panicked.
func (o *Options) runCallback(comp Component, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			o.Metrics.IncFailed(comp)
			o.reportTaskError(fmt.Errorf("%s: %w", comp, &PanicError{Value: r}))
		}
	}()
	fn()
	o.Metrics.IncExecuted(comp)
	return true
}
