package delay

// Guarded wraps s behind a dynamically evaluated condition. cond is
// re-evaluated on every observation: before each element an iteration pulls,
// and by extension whenever Count or IsEmpty inspect the sequence. While cond
// returns false the sequence behaves as empty; once it returns true again the
// original elements reappear on the next observation.
//
// Flipping cond to false while a retry chain is mid-iteration ends that
// chain's remaining retries, which makes Guarded a kill switch for retry
// policies.
//
// It panics if s or cond is nil.
func Guarded(s Seq, cond func() bool) Seq {
	if s == nil {
		panic("delay: nil sequence")
	}
	if cond == nil {
		panic("delay: nil guard condition")
	}
	return func(yield func(Delay) bool) {
		if !cond() {
			return
		}
		for d := range s {
			if !yield(d) {
				return
			}
			if !cond() {
				return
			}
		}
	}
}
