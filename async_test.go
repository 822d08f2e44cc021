package retryx_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/retryx"
	"github.com/seb7887/retryx/delay"
	"github.com/seb7887/retryx/retryxtest"
	"github.com/seb7887/retryx/sched"
)

func secondDelays(seconds ...int) delay.Seq {
	ds := make([]delay.Delay, len(seconds))
	for i, s := range seconds {
		ds[i] = delay.Of(time.Duration(s) * time.Second)
	}
	return delay.Values(ds...)
}

func awaitDone[T any](t *testing.T, fut *retryx.Future[T]) {
	t.Helper()
	select {
	case <-fut.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the future to settle")
	}
}

func TestAsyncImmediateSuccess(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	script := retryxtest.NewScript[string]().Succeed("ok")

	fut := retryx.Async(context.Background(), retryx.New(), script.Op(), fs)

	retryxtest.AssertCompleted(t, fut, "ok")
	assert.Equal(t, 0, fs.Pending())
}

func TestAsyncRetriesThroughScheduler(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(1, 2))
	script := retryxtest.NewScript[int]().
		FailTimes(2, errTransient).
		Succeed(42)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 1, script.Calls())

	fs.Tick(time.Second)
	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 2, script.Calls())

	fs.Tick(2 * time.Second)
	retryxtest.AssertCompleted(t, fut, 42)
	assert.Equal(t, 3, script.Calls())
}

func TestAsyncDelayNotDueYet(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(2))
	script := retryxtest.NewScript[string]().Fail(errTransient).Succeed("ok")

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	fs.Tick(time.Second)
	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 1, script.Calls(), "the retry must not run before its delay elapses")

	fs.Tick(time.Second)
	retryxtest.AssertCompleted(t, fut, "ok")
}

func TestAsyncExhaustsDelays(t *testing.T) {
	f1 := &flakyError{attempt: 1}
	f2 := &flakyError{attempt: 2}
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.On[*flakyError](), secondDelays(1))
	script := retryxtest.NewScript[int]().Fail(f1).Fail(f2)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)
	fs.Tick(time.Second)

	err := retryxtest.AssertFailed(t, fut)
	var rerr *retryx.Error
	require.ErrorAs(t, err, &rerr)
	assert.Same(t, f2, rerr.Terminal())
	assert.Equal(t, []error{f1}, rerr.Suppressed())
	assert.Equal(t, 2, rerr.Attempts())
}

func TestAsyncUnmatchedSettlesImmediately(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(1))
	script := retryxtest.NewScript[int]().Fail(errFatal)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	err := retryxtest.AssertFailed(t, fut)
	require.Same(t, errFatal, err)
	assert.Equal(t, 0, fs.Pending())
}

func TestAsyncZeroDelayRunsOnNextTurn(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), delay.Values(delay.Of(0)))
	script := retryxtest.NewScript[string]().Fail(errTransient).Succeed("ok")

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 1, script.Calls(), "a zero delay must still defer to the next turn")

	fs.Tick(0)
	retryxtest.AssertCompleted(t, fut, "ok")
}

func TestAsyncCancelFutureStopsRetrying(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(3600))
	script := retryxtest.NewScript[int]().FailTimes(5, errTransient)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	require.True(t, fut.Cancel())
	retryxtest.AssertCanceled(t, fut)
	assert.False(t, fut.Cancel(), "a settled future cannot be canceled twice")

	fs.Tick(2 * time.Hour)
	assert.Equal(t, 1, script.Calls(), "canceling must abandon the scheduled retry")

	_, err, ok := fut.TryGet()
	require.True(t, ok)
	assert.ErrorIs(t, err, retryx.ErrCanceled)
}

func TestAsyncContextCancelSettlesFuture(t *testing.T) {
	errStop := errors.New("shutting down")
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(3600))
	script := retryxtest.NewScript[int]().FailTimes(5, errTransient)
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	fut := retryx.Async(ctx, r, script.Op(), fs)
	retryxtest.AssertPending(t, fut)

	cancel(errStop)
	awaitDone(t, fut)

	retryxtest.AssertCanceled(t, fut)
	_, err, ok := fut.TryGet()
	require.True(t, ok)
	assert.Same(t, errStop, err)

	fs.Tick(2 * time.Hour)
	assert.Equal(t, 1, script.Calls())
}

func TestAsyncTimeBudgetStopsGranting(t *testing.T) {
	f1 := &flakyError{attempt: 1}
	f2 := &flakyError{attempt: 2}
	f3 := &flakyError{attempt: 3}
	fc := retryxtest.NewFakeClock()
	fs := retryxtest.NewFakeScheduler()
	elapse := func(d time.Duration) {
		fc.Advance(d)
		fs.Tick(d)
	}

	r := retryx.New().Upon(
		retryx.On[*flakyError](),
		delay.TimeLimited(delay.Fixed(delay.Of(time.Hour), 10), 2*time.Hour, fc),
	)
	script := retryxtest.NewScript[int]().Fail(f1).Fail(f2).Fail(f3)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	retryxtest.AssertPending(t, fut)
	elapse(time.Hour)
	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 2, script.Calls())

	elapse(time.Hour)
	err := retryxtest.AssertFailed(t, fut)
	var rerr *retryx.Error
	require.ErrorAs(t, err, &rerr)
	assert.Same(t, f3, rerr.Terminal())
	assert.Equal(t, []error{f1, f2}, rerr.Suppressed())
	assert.Equal(t, 3, script.Calls(), "the budget must deny a delay once spent")
}

func TestAsyncBeforeHookFailureSettles(t *testing.T) {
	errHook := errors.New("listener broke")
	fs := retryxtest.NewFakeScheduler()
	d := delay.Of(time.Second).WithBefore(func(error) error { return errHook })
	r := retryx.New().Upon(retryx.OnIs(errTransient), delay.Values(d))
	script := retryxtest.NewScript[int]().FailTimes(2, errTransient)

	fut := retryx.Async(context.Background(), r, script.Op(), fs)

	err := retryxtest.AssertFailed(t, fut)
	var rerr *retryx.Error
	require.ErrorAs(t, err, &rerr)
	assert.Same(t, errHook, rerr.Terminal())
	assert.Equal(t, []error{errTransient}, rerr.Suppressed())
	assert.Equal(t, 0, fs.Pending(), "a failing before hook must not schedule the retry")
}

func TestAsyncFutureInnerSettlement(t *testing.T) {
	f1 := &flakyError{attempt: 1}
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.On[*flakyError](), secondDelays(1))

	var produced []*retryx.Future[string]
	op := func(context.Context) (*retryx.Future[string], error) {
		inner := retryx.NewFuture[string]()
		produced = append(produced, inner)
		return inner, nil
	}

	fut := retryx.AsyncFuture(context.Background(), r, op, fs)

	retryxtest.AssertPending(t, fut)
	require.Len(t, produced, 1)

	produced[0].Fail(f1)
	retryxtest.AssertPending(t, fut)
	assert.Equal(t, 1, fs.Pending(), "a matched inner failure must schedule a retry, not settle")

	fs.Tick(time.Second)
	require.Len(t, produced, 2)

	require.True(t, produced[1].Complete("done"))
	retryxtest.AssertCompleted(t, fut, "done")
}

func TestAsyncFutureSyncErrorCountsAsAttempt(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New().Upon(retryx.OnIs(errTransient), secondDelays(1))

	calls := 0
	op := func(context.Context) (*retryx.Future[int], error) {
		calls++
		if calls == 1 {
			return nil, errTransient
		}
		inner := retryx.NewFuture[int]()
		inner.Complete(9)
		return inner, nil
	}

	fut := retryx.AsyncFuture(context.Background(), r, op, fs)

	retryxtest.AssertPending(t, fut)
	fs.Tick(time.Second)
	retryxtest.AssertCompleted(t, fut, 9)
	assert.Equal(t, 2, calls)
}

func TestAsyncWithPoolScheduler(t *testing.T) {
	pool := sched.NewPool(2, 8)
	defer pool.Stop()

	r := retryx.New().Upon(retryx.OnIs(errTransient), delay.Values(delay.Of(time.Millisecond)))
	script := retryxtest.NewScript[string]().Fail(errTransient).Succeed("ok")

	fut := retryx.Async(context.Background(), r, script.Op(), pool.For("chain-a"))
	awaitDone(t, fut)

	retryxtest.AssertCompleted(t, fut, "ok")
	assert.Equal(t, 2, script.Calls())
}

func TestAsyncPanicsOnNilArguments(t *testing.T) {
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New()
	op := func(context.Context) (int, error) { return 0, nil }

	assert.Panics(t, func() { retryx.Async(context.Background(), nil, op, fs) })
	assert.Panics(t, func() { retryx.Async[int](context.Background(), r, nil, fs) })
	assert.Panics(t, func() { retryx.Async(context.Background(), r, op, nil) })
	assert.Panics(t, func() {
		retryx.AsyncFuture[int](context.Background(), r, nil, fs)
	})
}

type recordedEvent struct {
	kind    string
	err     error
	outcome retryx.Outcome
}

type recordingObserver struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (o *recordingObserver) ChainStarted(_ context.Context, _ retryx.ChainInfo) {
	o.record(recordedEvent{kind: "started"})
}

func (o *recordingObserver) AttemptFinished(_ context.Context, info retryx.AttemptInfo) {
	o.record(recordedEvent{kind: "attempt", err: info.Err})
}

func (o *recordingObserver) DelayScheduled(_ context.Context, _ retryx.DelayInfo) {
	o.record(recordedEvent{kind: "delay"})
}

func (o *recordingObserver) ChainSettled(_ context.Context, info retryx.SettleInfo) {
	o.record(recordedEvent{kind: "settled", err: info.Err, outcome: info.Outcome})
}

func (o *recordingObserver) record(ev recordedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) snapshot() []recordedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]recordedEvent(nil), o.events...)
}

func TestAsyncObserverSeesLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	fs := retryxtest.NewFakeScheduler()
	r := retryx.New(retryx.WithObserver(obs)).
		Upon(retryx.OnIs(errTransient), secondDelays(1))
	script := retryxtest.NewScript[string]().Fail(errTransient).Succeed("ok")

	fut := retryx.Async(context.Background(), r, script.Op(), fs)
	fs.Tick(time.Second)
	retryxtest.AssertCompleted(t, fut, "ok")

	events := obs.snapshot()
	require.Len(t, events, 5)
	assert.Equal(t, "started", events[0].kind)
	assert.Equal(t, "attempt", events[1].kind)
	assert.Same(t, errTransient, events[1].err)
	assert.Equal(t, "delay", events[2].kind)
	assert.Equal(t, "attempt", events[3].kind)
	assert.NoError(t, events[3].err)
	assert.Equal(t, "settled", events[4].kind)
	assert.Equal(t, retryx.OutcomeSuccess, events[4].outcome)
}
