// Package retryx is a retry orchestration engine. A Retryer maps failure
// kinds to backoff schedules built from the delay package; the entry points
// Do, Run, Async and AsyncFuture re-invoke a fallible operation according to
// the first matching schedule, composing the outcome as a plain return value
// or as a Future settled exactly once.
//
// A Retryer is immutable: Upon returns a new value and never mutates the
// receiver, so one policy can drive any number of concurrent retry chains
// without synchronization.
package retryx

import (
	"errors"

	"github.com/seb7887/retryx/delay"
)

// Matcher decides whether a retry rule covers an observed failure.
type Matcher func(err error) bool

// On returns a Matcher covering failures whose chain contains an error of
// type T, in the errors.As sense.
func On[T error]() Matcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// OnIs returns a Matcher covering failures whose chain contains target, in
// the errors.Is sense.
// It panics if target is nil.
func OnIs(target error) Matcher {
	if target == nil {
		panic("retryx: nil target error")
	}
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// OnFunc adapts an arbitrary predicate into a Matcher.
// It panics if pred is nil.
func OnFunc(pred func(error) bool) Matcher {
	if pred == nil {
		panic("retryx: nil predicate")
	}
	return Matcher(pred)
}

// OnAny returns a Matcher covering every failure.
func OnAny() Matcher {
	return func(error) bool { return true }
}

// rule pairs a matcher with its backoff schedule. Rules form a persistent
// list: every registration allocates one node sharing the unchanged tail, so
// deriving a Retryer never copies earlier rules.
type rule struct {
	match  Matcher
	delays delay.Seq
	prev   *rule
	pos    int // 1-based registration position
}

// Retryer is an immutable retry policy: an ordered list of (matcher, delay
// sequence) rules together with engine options. Failures are dispatched to
// the first rule, in registration order, whose matcher accepts them; a
// failure no rule covers propagates immediately.
type Retryer struct {
	last *rule
	opts options
}

// New returns a Retryer with no rules. Until rules are added with Upon,
// every failure propagates after a single attempt.
func New(opts ...Option) *Retryer {
	var r Retryer
	for _, opt := range opts {
		opt(&r.opts)
	}
	return &r
}

// Upon returns a new Retryer that additionally retries failures accepted by
// match, one retry per element of delays. The receiver is unchanged:
// discarding the result leaves the original policy without the new rule.
//
// The sequence is captured as given and iterated lazily, once per retry
// chain, so dynamic sequences (delay.Guarded, delay.TimeLimited) are
// re-evaluated by every chain. Sequences must be restartable; everything
// built by the delay package is.
//
// It panics if match or delays is nil.
func (r *Retryer) Upon(match Matcher, delays delay.Seq) *Retryer {
	if match == nil {
		panic("retryx: nil matcher")
	}
	if delays == nil {
		panic("retryx: nil delay sequence")
	}
	pos := 1
	if r.last != nil {
		pos = r.last.pos + 1
	}
	return &Retryer{
		last: &rule{match: match, delays: delays, prev: r.last, pos: pos},
		opts: r.opts,
	}
}

// rules materializes the rule list in registration order.
func (r *Retryer) rules() []*rule {
	if r.last == nil {
		return nil
	}
	out := make([]*rule, r.last.pos)
	for n := r.last; n != nil; n = n.prev {
		out[n.pos-1] = n
	}
	return out
}

// matchRule returns the index of the first rule covering f, or -1.
func matchRule(rules []*rule, f error) int {
	for i, rl := range rules {
		if rl.match(f) {
			return i
		}
	}
	return -1
}
