package delay

import (
	"fmt"
	"time"

	"github.com/seb7887/retryx/clock"
)

// TimeLimited truncates s so that no element is yielded once the time elapsed
// since the iteration began reaches budget. The budget is measured from the
// first pull of each iteration, not from construction, so a single
// time-limited sequence can back many retry chains, each with its own budget
// window.
//
// It panics if s or clk is nil, or budget is negative.
func TimeLimited(s Seq, budget time.Duration, clk clock.Clock) Seq {
	if s == nil {
		panic("delay: nil sequence")
	}
	if clk == nil {
		panic("delay: nil clock")
	}
	if budget < 0 {
		panic(fmt.Sprintf("delay: negative budget %v", budget))
	}
	return func(yield func(Delay) bool) {
		start := clk.Now()
		for d := range s {
			if clk.Now().Sub(start) >= budget {
				return
			}
			if !yield(d) {
				return
			}
		}
	}
}
