package retryxtest

import (
	"sort"
	"sync"
	"time"

	"github.com/seb7887/retryx/sched"
)

const (
	taskPending = iota
	taskRun
	taskCanceled
)

type fakeTask struct {
	at   time.Duration
	run  func()
	seq  int
	done int
}

// FakeScheduler queues tasks against a virtual clock. Tick advances the
// clock and then runs, once, every task due by the new time; tasks those
// runs schedule wait for a later Tick, the way a real scheduler interleaves
// work with the passage of time.
type FakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*fakeTask
}

// NewFakeScheduler returns an idle FakeScheduler at virtual time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) ScheduleAfter(d time.Duration, task func()) sched.CancelFunc {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	t := &fakeTask{at: s.now + d, run: task, seq: s.seq}
	s.seq++
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.done != taskPending {
			return false
		}
		t.done = taskCanceled
		return true
	}
}

// ExecuteNow queues task at the current virtual time; it runs on the next
// Tick, even Tick(0).
func (s *FakeScheduler) ExecuteNow(task func()) {
	s.ScheduleAfter(0, task)
}

// Tick advances virtual time by d and runs one round of the tasks due by
// then, in due-time order.
func (s *FakeScheduler) Tick(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTask
	keep := s.tasks[:0]
	for _, t := range s.tasks {
		switch {
		case t.done == taskCanceled:
		case t.at <= s.now:
			t.done = taskRun
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	s.tasks = keep
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.run()
	}
}

// Elapsed returns the total virtual time advanced so far.
func (s *FakeScheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns how many scheduled tasks have neither run nor been
// canceled.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.done == taskPending {
			n++
		}
	}
	return n
}
