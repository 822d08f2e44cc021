// Package delay provides the building block of retry backoff schedules: an
// immutable wait specification with lifecycle hooks, plus combinators that
// derive lazy sequences of waits (exponential, randomized, time-bounded,
// dynamically guarded).
package delay

import (
	"fmt"
	"math"
	"time"
)

// Hook runs around a wait with the failure that caused it. A non-nil return
// aborts the retry chain: the hook's error becomes the terminal failure and
// the causing failure is recorded as a suppressed cause.
type Hook func(cause error) error

// Delay is one step of a retry backoff schedule: a non-negative wait plus two
// optional hooks run immediately before the wait starts and immediately after
// it elapses. The zero value is a zero-length delay with no hooks.
//
// Delay values are immutable; every method returns a new value and never
// mutates the receiver.
type Delay struct {
	d      time.Duration
	before Hook
	after  Hook
}

// Of returns a Delay of the given duration.
// It panics if d is negative.
func Of(d time.Duration) Delay {
	if d < 0 {
		panic(fmt.Sprintf("delay: negative duration %v", d))
	}
	return Delay{d: d}
}

// Duration returns the wait duration.
func (d Delay) Duration() time.Duration {
	return d.d
}

// WithBefore returns a copy of d that runs fn immediately before the wait
// starts.
func (d Delay) WithBefore(fn Hook) Delay {
	d.before = fn
	return d
}

// WithAfter returns a copy of d that runs fn immediately after the wait
// elapses, before the retried invocation.
func (d Delay) WithAfter(fn Hook) Delay {
	d.after = fn
	return d
}

// Before runs the before-wait hook with the failure that triggered this wait.
// It returns nil when no hook is set.
func (d Delay) Before(cause error) error {
	if d.before == nil {
		return nil
	}
	return d.before(cause)
}

// After runs the after-wait hook with the failure that triggered this wait.
// It returns nil when no hook is set.
func (d Delay) After(cause error) error {
	if d.after == nil {
		return nil
	}
	return d.after(cause)
}

// Scaled returns a copy of d with its duration multiplied by factor. Hooks
// carry over. A non-zero result never truncates to zero: fractional products
// round up to the next nanosecond, so scaling a positive delay by a tiny
// positive factor still yields a schedulable wait.
//
// It panics if factor is negative or NaN, or if the product overflows.
func (d Delay) Scaled(factor float64) Delay {
	if math.IsNaN(factor) || factor < 0 {
		panic(fmt.Sprintf("delay: invalid scale factor %v", factor))
	}
	if factor == 1 {
		return d
	}
	product := float64(d.d) * factor
	// float64(math.MaxInt64) is 2^63, which itself no longer fits in an int64.
	if product >= math.MaxInt64 {
		panic(fmt.Sprintf("delay: %v scaled by %v overflows", d.d, factor))
	}
	d.d = time.Duration(math.Ceil(product))
	return d
}

// Compare orders delays by duration only; hooks never participate.
func (d Delay) Compare(other Delay) int {
	switch {
	case d.d < other.d:
		return -1
	case d.d > other.d:
		return 1
	default:
		return 0
	}
}

// Equal reports whether d and other have the same duration. Hook identity is
// irrelevant to equality.
func (d Delay) Equal(other Delay) bool {
	return d.d == other.d
}

// String renders the wait duration.
func (d Delay) String() string {
	return d.d.String()
}
