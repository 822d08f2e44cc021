// Package clock abstracts time observation and waiting so that retry
// schedules can run against the wall clock in production and against a fake
// clock in tests.
package clock

import (
	"context"
	"time"
)

// Clock provides the two time capabilities the retry engine consumes:
// reading instants for budget accounting and waiting between attempts.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns nil when the full duration elapsed, or the context's
	// error when the wait was interrupted.
	Sleep(ctx context.Context, d time.Duration) error
}

// System returns a Clock backed by the wall clock and real timers.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Zero-length waits still observe an already-done context.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
