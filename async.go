package retryx

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/seb7887/retryx/delay"
	"github.com/seb7887/retryx/ordinal"
	"github.com/seb7887/retryx/sched"
)

// Async retries op through s without blocking the caller. The first attempt
// runs synchronously on the calling goroutine, so a chain that succeeds
// immediately settles before Async returns; later attempts run as scheduler
// tasks after their delays. The returned future settles with the final
// outcome exactly as Do would have returned it.
//
// Canceling ctx or the returned future abandons the pending scheduled retry
// and settles the future with the cancellation cause.
//
// It panics if r, op or s is nil.
func Async[T any](ctx context.Context, r *Retryer, op func(context.Context) (T, error), s sched.Scheduler) *Future[T] {
	if op == nil {
		panic("retryx: nil operation")
	}
	c := startChain[T](ctx, r, s, ModeAsync)
	c.run = func() { c.once(op) }
	c.run()
	return c.fut
}

// AsyncFuture is Async for operations that are themselves asynchronous: op
// hands back a Future and the attempt finishes when that future settles. A
// non-nil error from op itself counts as the attempt's failure right away.
// Follow-up work after an inner future settles runs on the goroutine that
// settled it.
//
// It panics if r, op or s is nil, or if op returns a nil future without an
// error.
func AsyncFuture[T any](ctx context.Context, r *Retryer, op func(context.Context) (*Future[T], error), s sched.Scheduler) *Future[T] {
	if op == nil {
		panic("retryx: nil operation")
	}
	c := startChain[T](ctx, r, s, ModeAsyncFuture)
	c.run = func() { c.onceFuture(op) }
	c.run()
	return c.fut
}

// chain is the state of one asynchronous retry chain. Attempts are strictly
// sequential: the next one is scheduled only after the previous one was
// dispatched, so prior and iters need no locking against other attempts.
// The mutex serializes iterator use against cleanup, which may run on a
// canceling goroutine.
type chain[T any] struct {
	ctx   context.Context
	sch   sched.Scheduler
	fut   *Future[T]
	obs   observers
	id    string
	rules []*rule
	run   func()

	attempts atomic.Int32
	prior    []error

	mu      sync.Mutex
	cleaned bool
	iters   []func() (delay.Delay, bool)
	stops   []func()
	stopCtx func() bool
}

func startChain[T any](ctx context.Context, r *Retryer, s sched.Scheduler, mode Mode) *chain[T] {
	if r == nil {
		panic("retryx: nil retryer")
	}
	if s == nil {
		panic("retryx: nil scheduler")
	}
	c := &chain[T]{
		ctx:   ctx,
		sch:   s,
		fut:   NewFuture[T](),
		obs:   r.opts.observerSet(),
		id:    r.opts.chainID(),
		rules: r.rules(),
	}
	c.iters = make([]func() (delay.Delay, bool), len(c.rules))
	c.stops = make([]func(), len(c.rules))
	c.fut.whenSettled(func(_ T, _ error) { c.cleanup() })

	stop := context.AfterFunc(ctx, func() {
		cause := context.Cause(ctx)
		if c.fut.cancelWith(cause) {
			c.obs.ChainSettled(ctx, SettleInfo{
				ChainID:  c.id,
				Outcome:  OutcomeCanceled,
				Attempts: int(c.attempts.Load()),
				Err:      cause,
			})
		}
	})
	c.mu.Lock()
	if c.cleaned {
		c.mu.Unlock()
		stop()
	} else {
		c.stopCtx = stop
		c.mu.Unlock()
	}

	c.obs.ChainStarted(ctx, ChainInfo{ID: c.id, Mode: mode})
	return c
}

// once performs one synchronous attempt and dispatches its outcome.
func (c *chain[T]) once(op func(context.Context) (T, error)) {
	if c.fut.settled() {
		return
	}
	if c.ctx.Err() != nil {
		c.settleCanceled()
		return
	}
	n := int(c.attempts.Add(1))
	v, err := op(c.ctx)
	c.obs.AttemptFinished(c.ctx, AttemptInfo{ChainID: c.id, Attempt: ordinal.Of(n), Err: err})
	if err == nil {
		c.settleValue(v)
		return
	}
	c.dispatch(err)
}

// onceFuture performs one attempt of a future-returning operation. The
// dispatch happens when the inner future settles.
func (c *chain[T]) onceFuture(op func(context.Context) (*Future[T], error)) {
	if c.fut.settled() {
		return
	}
	if c.ctx.Err() != nil {
		c.settleCanceled()
		return
	}
	n := int(c.attempts.Add(1))
	inner, err := op(c.ctx)
	if err != nil {
		c.obs.AttemptFinished(c.ctx, AttemptInfo{ChainID: c.id, Attempt: ordinal.Of(n), Err: err})
		c.dispatch(err)
		return
	}
	if inner == nil {
		panic("retryx: operation returned a nil future")
	}
	inner.whenSettled(func(v T, err error) {
		c.obs.AttemptFinished(c.ctx, AttemptInfo{ChainID: c.id, Attempt: ordinal.Of(n), Err: err})
		if err == nil {
			c.settleValue(v)
			return
		}
		c.dispatch(err)
	})
}

// dispatch routes a failed attempt: match a rule, pull the next delay, run
// the before hook, and schedule the resume. Any step that comes up empty or
// fails settles the chain instead.
func (c *chain[T]) dispatch(f error) {
	idx := matchRule(c.rules, f)
	if idx < 0 {
		c.settleErr(OutcomeUnmatched, f, nil)
		return
	}
	d, ok := c.nextDelay(idx)
	if !ok {
		c.settleErr(OutcomeExhausted, f, c.prior)
		return
	}
	if hookErr := d.Before(f); hookErr != nil {
		c.settleErr(OutcomeHookFailed, hookErr, append(c.prior, f))
		return
	}
	c.prior = append(c.prior, f)
	c.obs.DelayScheduled(c.ctx, DelayInfo{
		ChainID: c.id,
		Attempt: ordinal.Of(int(c.attempts.Load())),
		Delay:   d.Duration(),
	})
	resume := func() { c.resume(d, f) }
	if d.Duration() <= 0 {
		c.sch.ExecuteNow(resume)
		return
	}
	c.fut.setCancelTask(c.sch.ScheduleAfter(d.Duration(), resume))
}

// resume runs when a granted delay elapses: after hook first, then the next
// attempt.
func (c *chain[T]) resume(d delay.Delay, cause error) {
	if c.fut.settled() {
		return
	}
	if c.ctx.Err() != nil {
		c.settleCanceled()
		return
	}
	if hookErr := d.After(cause); hookErr != nil {
		c.settleErr(OutcomeHookFailed, hookErr, c.prior)
		return
	}
	c.run()
}

func (c *chain[T]) nextDelay(idx int) (delay.Delay, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cleaned {
		return delay.Delay{}, false
	}
	if c.iters[idx] == nil {
		next, stop := iter.Pull(c.rules[idx].delays)
		c.iters[idx], c.stops[idx] = next, stop
	}
	return c.iters[idx]()
}

// cleanup releases the chain's pull iterators and context watcher. It runs
// once, as a settle subscriber of the chain's future.
func (c *chain[T]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cleaned {
		return
	}
	c.cleaned = true
	for _, stop := range c.stops {
		if stop != nil {
			stop()
		}
	}
	if c.stopCtx != nil {
		c.stopCtx()
	}
}

func (c *chain[T]) settleValue(v T) {
	if c.fut.Complete(v) {
		c.obs.ChainSettled(c.ctx, SettleInfo{
			ChainID:  c.id,
			Outcome:  OutcomeSuccess,
			Attempts: int(c.attempts.Load()),
		})
	}
}

func (c *chain[T]) settleErr(outcome Outcome, terminal error, suppressed []error) {
	attempts := int(c.attempts.Load())
	err := newError(terminal, suppressed, attempts)
	if c.fut.Fail(err) {
		c.obs.ChainSettled(c.ctx, SettleInfo{
			ChainID:  c.id,
			Outcome:  outcome,
			Attempts: attempts,
			Err:      err,
		})
	}
}

func (c *chain[T]) settleCanceled() {
	cause := context.Cause(c.ctx)
	if c.fut.cancelWith(cause) {
		c.obs.ChainSettled(c.ctx, SettleInfo{
			ChainID:  c.id,
			Outcome:  OutcomeCanceled,
			Attempts: int(c.attempts.Load()),
			Err:      cause,
		})
	}
}
