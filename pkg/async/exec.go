package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by AwaitWithTimeout when the task is still running.
var ErrTimeout = errors.New("async: timed out waiting for task")

// ExecFuture tracks a background task that only reports an error.
type ExecFuture struct {
	err  error
	done chan struct{}
}

// Await blocks until the task returns and yields its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout is Await bounded by timeout. The task keeps running after
// a timeout.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.err
	case <-timer.C:
		return ErrTimeout
	}
}

// Done is closed when the task returns.
func (f *ExecFuture) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the task has returned, without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec runs fn(ctx, param) on a new goroutine. A context that is already
// cancelled skips fn and completes the future with ctx.Err(). A panic in fn
// is recovered and reported as the future's error.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if p := recover(); p != nil {
				f.err = fmt.Errorf("async: task panicked: %v", p)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.err = fn(ctx, param)
	}()

	return f
}
