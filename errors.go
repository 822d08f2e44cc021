package retryx

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/seb7887/retryx/ordinal"
)

// ErrCanceled settles a Future whose Cancel call won the race against the
// retry chain's own completion.
var ErrCanceled = errors.New("retryx: canceled")

// Error is the terminal failure of a retry chain that retained earlier,
// suppressed failures for diagnostics. The engine returns it only when there
// is something to attach; a chain that gives up with no suppressed causes
// surfaces the terminal failure unchanged.
type Error struct {
	err        error
	suppressed []error
	attempts   int
}

// newError wraps terminal with the given suppressed causes, dropping any
// entry that is the terminal failure itself. When nothing remains, terminal
// is returned as is.
func newError(terminal error, suppressed []error, attempts int) error {
	var kept []error
	for _, s := range suppressed {
		if !sameFailure(s, terminal) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return terminal
	}
	return &Error{err: terminal, suppressed: kept, attempts: attempts}
}

func (e *Error) Error() string {
	if e.attempts < 1 {
		return fmt.Sprintf("%v (%d suppressed)", e.err, len(e.suppressed))
	}
	return fmt.Sprintf("%v (gave up on the %s attempt, %d suppressed)",
		e.err, ordinal.Of(e.attempts), len(e.suppressed))
}

// Terminal returns the failure that ended the chain.
func (e *Error) Terminal() error { return e.err }

// Suppressed returns the earlier failures of the chain in chronological
// order. The returned slice is a copy.
func (e *Error) Suppressed() []error {
	out := make([]error, len(e.suppressed))
	copy(out, e.suppressed)
	return out
}

// Attempts returns how many times the operation ran before the chain gave
// up.
func (e *Error) Attempts() int { return e.attempts }

// Unwrap exposes the terminal failure first and the suppressed causes after
// it, so errors.Is and errors.As see the whole chain.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, len(e.suppressed)+1)
	out = append(out, e.err)
	return append(out, e.suppressed...)
}

// sameFailure reports whether a and b are the same failure value, not merely
// equivalent per errors.Is. Uncomparable dynamic types never count as the
// same value.
func sameFailure(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
