package sched

import "time"

// Timers returns a Scheduler backed by time.AfterFunc. Each task runs on its
// own timer goroutine.
func Timers() Scheduler {
	return timerScheduler{}
}

type timerScheduler struct{}

func (timerScheduler) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	return time.AfterFunc(d, task).Stop
}

func (timerScheduler) ExecuteNow(task func()) {
	time.AfterFunc(0, task)
}
