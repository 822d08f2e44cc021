// Package sched defines the deferred-execution capability the retry engine
// consumes, together with two implementations: one backed by plain timers and
// one backed by a sharded worker pool.
package sched

import "time"

// CancelFunc best-effort cancels a scheduled task. It reports whether the
// task was prevented from running; a task that already started always runs to
// completion.
type CancelFunc func() bool

// Scheduler executes retry continuations. The engine never creates its own
// goroutines; every deferred attempt goes through a Scheduler.
type Scheduler interface {
	// ScheduleAfter runs task exactly once, no earlier than d from now.
	ScheduleAfter(d time.Duration, task func()) CancelFunc

	// ExecuteNow runs task as soon as possible, but always on a later
	// turn rather than synchronously, so chains of zero-delay retries
	// never grow the submitter's call stack.
	ExecuteNow(task func())
}
