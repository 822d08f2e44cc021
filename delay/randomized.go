package delay

import "fmt"

// RandomSource yields uniform draws in [0, 1). *rand.Rand from math/rand/v2
// satisfies it; tests substitute fixed draws.
type RandomSource interface {
	Float64() float64
}

// Randomized returns a copy of d whose duration is resampled uniformly around
// the base duration with the given spread: one draw u is taken from src now,
// and the result is duration × (1 − randomness + 2 × randomness × u), that
// is, uniform over [d×(1−randomness), d×(1+randomness)). Hooks carry over.
// With randomness 0 the result is always exactly d; with randomness 1 it
// ranges over [0, 2d).
//
// It panics if src is nil or randomness is outside [0, 1].
func (d Delay) Randomized(src RandomSource, randomness float64) Delay {
	checkRandomness(src, randomness)
	return d.Scaled(1 - randomness + 2*randomness*src.Float64())
}

// Randomize wraps s so that every element is independently resampled, as by
// Randomized, each time the sequence is iterated. Two iterations of the
// returned sequence observe different durations.
//
// It panics if s or src is nil or randomness is outside [0, 1].
func Randomize(s Seq, src RandomSource, randomness float64) Seq {
	if s == nil {
		panic("delay: nil sequence")
	}
	checkRandomness(src, randomness)
	return func(yield func(Delay) bool) {
		for d := range s {
			if !yield(d.Randomized(src, randomness)) {
				return
			}
		}
	}
}

func checkRandomness(src RandomSource, randomness float64) {
	if src == nil {
		panic("delay: nil random source")
	}
	if !(randomness >= 0 && randomness <= 1) {
		panic(fmt.Sprintf("delay: randomness %v outside [0, 1]", randomness))
	}
}
