package delay

import (
	"fmt"
	"iter"
)

// Seq is a lazy, finite, restartable ordered sequence of delays. Plain
// sequences yield the same elements on every iteration; dynamic wrappers
// (Guarded, TimeLimited, Randomize) re-evaluate their external state each
// time they are iterated.
//
// A retry chain pulls from its own iteration of a Seq, so a single Seq value
// can back any number of concurrent chains as long as the underlying producer
// is restartable. All sequences built by this package are.
type Seq = iter.Seq[Delay]

// Values returns the fixed sequence of exactly the given delays, in order.
func Values(delays ...Delay) Seq {
	return func(yield func(Delay) bool) {
		for _, d := range delays {
			if !yield(d) {
				return
			}
		}
	}
}

// Fixed returns a sequence of count copies of d.
// It panics if count is negative.
func Fixed(d Delay, count int) Seq {
	if count < 0 {
		panic(fmt.Sprintf("delay: negative count %d", count))
	}
	return func(yield func(Delay) bool) {
		for i := 0; i < count; i++ {
			if !yield(d) {
				return
			}
		}
	}
}

// Count iterates s to completion and returns the number of elements observed.
// Dynamic wrappers are re-evaluated by the iteration.
func Count(s Seq) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// IsEmpty reports whether an iteration of s observes no elements. Only the
// first element (if any) is pulled.
func IsEmpty(s Seq) bool {
	for range s {
		return false
	}
	return true
}
