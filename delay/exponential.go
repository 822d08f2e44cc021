package delay

import (
	"fmt"
	"math"
)

// ExponentialBackoff returns a sequence of count delays starting at d, where
// element i has d's duration multiplied by multiplier^i. Hooks carry over to
// every element. A count of 0 yields an empty sequence; a multiplier of 1
// yields a fixed schedule.
//
// It panics if multiplier < 1 (or NaN) or count < 0. Element durations that
// would overflow panic at iteration time, when the offending element is
// pulled.
func (d Delay) ExponentialBackoff(multiplier float64, count int) Seq {
	if math.IsNaN(multiplier) || multiplier < 1 {
		panic(fmt.Sprintf("delay: invalid backoff multiplier %v", multiplier))
	}
	if count < 0 {
		panic(fmt.Sprintf("delay: negative backoff count %d", count))
	}
	return func(yield func(Delay) bool) {
		for i := 0; i < count; i++ {
			if !yield(d.Scaled(math.Pow(multiplier, float64(i)))) {
				return
			}
		}
	}
}
