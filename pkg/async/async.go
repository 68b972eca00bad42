package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Future represents the pending result of an asynchronous computation.
// The zero value is not usable; futures are created by Async.
type Future[U any] struct {
	value U
	err   error
	once  sync.Once
	done  chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// complete records the result exactly once and unblocks all waiters.
func (f *Future[U]) complete(value U, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await blocks until the computation completes and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.value, f.err
}

// AwaitWithTimeout blocks up to d for the computation to complete.
// On timeout it returns the zero value and ErrTimeout; the underlying
// goroutine keeps running until its function returns.
func (f *Future[U]) AwaitWithTimeout(d time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(d):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn(ctx, arg) in a new goroutine and returns a Future for its
// result. If ctx is already cancelled the function is not invoked and the
// future completes with the context error.
func Async[T, U any](ctx context.Context, arg T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		select {
		case <-ctx.Done():
			var zero U
			f.complete(zero, ctx.Err())
			return
		default:
		}

		value, err := fn(ctx, arg)
		f.complete(value, err)
	}()

	return f
}

// WaitAll blocks until every future completes. Results are returned in the
// order the futures were passed; individual errors are joined.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var errs []error

	for i, f := range futures {
		value, err := f.Await()
		results[i] = value
		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}

// WaitAny blocks until the first future completes and returns its index,
// value and error. Remaining futures continue running.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	var zero U
	if len(futures) == 0 {
		return -1, zero, ErrNoFutures
	}

	type outcome struct {
		idx   int
		value U
		err   error
	}

	// Buffered so late finishers never block their goroutines.
	ch := make(chan outcome, len(futures))
	for i, f := range futures {
		go func(idx int, f *Future[U]) {
			value, err := f.Await()
			ch <- outcome{idx: idx, value: value, err: err}
		}(i, f)
	}

	first := <-ch
	return first.idx, first.value, first.err
}
