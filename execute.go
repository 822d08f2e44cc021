package retryx

import (
	"context"
	"iter"

	"github.com/seb7887/retryx/delay"
	"github.com/seb7887/retryx/ordinal"
)

// Do runs op on the calling goroutine, retrying failures according to r.
// Waits between attempts block the caller through the Retryer's clock and
// end early when ctx is done.
//
// The result is op's value on success. On failure it is the terminal error,
// wrapped in *Error when earlier suppressed failures were retained and
// returned unchanged otherwise. Cancellation surfaces context.Cause(ctx) the
// same way.
//
// It panics if r or op is nil.
func Do[T any](ctx context.Context, r *Retryer, op func(context.Context) (T, error)) (T, error) {
	if r == nil {
		panic("retryx: nil retryer")
	}
	if op == nil {
		panic("retryx: nil operation")
	}

	var zero T
	rules := r.rules()
	iters := make([]func() (delay.Delay, bool), len(rules))

	clk := r.opts.clockOrSystem()
	obs := r.opts.observerSet()
	id := r.opts.chainID()
	obs.ChainStarted(ctx, ChainInfo{ID: id, Mode: ModeBlocking})

	var prior []error
	attempts := 0
	for {
		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			err := newError(cause, prior, attempts)
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeCanceled, Attempts: attempts, Err: err})
			return zero, err
		}

		attempts++
		v, err := op(ctx)
		obs.AttemptFinished(ctx, AttemptInfo{ChainID: id, Attempt: ordinal.Of(attempts), Err: err})
		if err == nil {
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeSuccess, Attempts: attempts})
			return v, nil
		}

		idx := matchRule(rules, err)
		if idx < 0 {
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeUnmatched, Attempts: attempts, Err: err})
			return zero, err
		}
		if iters[idx] == nil {
			next, stop := iter.Pull(rules[idx].delays)
			iters[idx] = next
			defer stop()
		}
		d, ok := iters[idx]()
		if !ok {
			werr := newError(err, prior, attempts)
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeExhausted, Attempts: attempts, Err: werr})
			return zero, werr
		}

		if hookErr := d.Before(err); hookErr != nil {
			werr := newError(hookErr, append(prior, err), attempts)
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeHookFailed, Attempts: attempts, Err: werr})
			return zero, werr
		}
		prior = append(prior, err)
		obs.DelayScheduled(ctx, DelayInfo{ChainID: id, Attempt: ordinal.Of(attempts), Delay: d.Duration()})

		if sleepErr := clk.Sleep(ctx, d.Duration()); sleepErr != nil {
			cause := context.Cause(ctx)
			werr := newError(cause, prior, attempts)
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeCanceled, Attempts: attempts, Err: werr})
			return zero, werr
		}
		if hookErr := d.After(err); hookErr != nil {
			werr := newError(hookErr, prior, attempts)
			obs.ChainSettled(ctx, SettleInfo{ChainID: id, Outcome: OutcomeHookFailed, Attempts: attempts, Err: werr})
			return zero, werr
		}
	}
}

// Run is Do for operations that return only an error.
func Run(ctx context.Context, r *Retryer, op func(context.Context) error) error {
	if op == nil {
		panic("retryx: nil operation")
	}
	_, err := Do(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
