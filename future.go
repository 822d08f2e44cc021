package retryx

import (
	"context"
	"sync"
)

type futureState int

const (
	statePending futureState = iota
	stateCompleted
	stateFailed
	stateCanceled
)

// Future is the eventual outcome of a retry chain: a value, a failure, or
// cancellation. It settles exactly once; later settle calls are ignored and
// reported as false.
//
// Futures returned by Async and AsyncFuture are settled by the engine.
// Operations given to AsyncFuture hand back futures of their own making and
// settle those with Complete and Fail.
type Future[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	val   T
	err   error
	state futureState

	// onCancel stops the pending scheduled retry, when there is one.
	onCancel func() bool
	subs     []func(T, error)
}

// NewFuture returns a pending Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done returns a channel that is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Complete settles f with v and reports whether this call was the one that
// settled it.
func (f *Future[T]) Complete(v T) bool {
	return f.settle(v, nil, stateCompleted)
}

// Fail settles f with err and reports whether this call was the one that
// settled it. It panics if err is nil.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		panic("retryx: Fail with nil error")
	}
	var zero T
	return f.settle(zero, err, stateFailed)
}

// Cancel settles f with ErrCanceled, stops the chain's pending scheduled
// retry if one is waiting, and reports whether this call canceled the
// future. A settled future cannot be canceled.
func (f *Future[T]) Cancel() bool {
	return f.cancelWith(ErrCanceled)
}

// Canceled reports whether f settled by cancellation.
func (f *Future[T]) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateCanceled
}

// Get waits until f settles or ctx is done. On cancellation of ctx it
// returns context.Cause(ctx) without waiting further; the future itself
// stays untouched.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

// TryGet returns the outcome without blocking. ok is false while f is still
// pending.
func (f *Future[T]) TryGet() (v T, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == statePending {
		var zero T
		return zero, nil, false
	}
	return f.val, f.err, true
}

func (f *Future[T]) settle(v T, err error, state futureState) bool {
	f.mu.Lock()
	if f.state != statePending {
		f.mu.Unlock()
		return false
	}
	f.val, f.err, f.state = v, err, state
	subs := f.subs
	f.subs, f.onCancel = nil, nil
	close(f.done)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(v, err)
	}
	return true
}

func (f *Future[T]) cancelWith(cause error) bool {
	f.mu.Lock()
	if f.state != statePending {
		f.mu.Unlock()
		return false
	}
	var zero T
	f.val, f.err, f.state = zero, cause, stateCanceled
	onCancel := f.onCancel
	subs := f.subs
	f.subs, f.onCancel = nil, nil
	close(f.done)
	f.mu.Unlock()
	if onCancel != nil {
		onCancel()
	}
	for _, fn := range subs {
		fn(zero, cause)
	}
	return true
}

// settled reports whether f is no longer pending.
func (f *Future[T]) settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != statePending
}

// whenSettled runs fn after f settles, on the settling goroutine, or
// immediately when f has already settled. On cancellation fn observes the
// cancellation cause as the error.
func (f *Future[T]) whenSettled(fn func(T, error)) {
	f.mu.Lock()
	if f.state == statePending {
		f.subs = append(f.subs, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	fn(v, err)
}

// setCancelTask records the handle that stops the currently scheduled retry.
// If the future was canceled while the retry was being scheduled, the handle
// is invoked here so the task never runs.
func (f *Future[T]) setCancelTask(cancel func() bool) {
	if cancel == nil {
		return
	}
	f.mu.Lock()
	if f.state == statePending {
		f.onCancel = cancel
		f.mu.Unlock()
		return
	}
	state := f.state
	f.mu.Unlock()
	if state == stateCanceled {
		cancel()
	}
}
