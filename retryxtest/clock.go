// Package retryxtest provides fakes and assertions for testing retry
// policies without real waiting: a manually advanced clock, a virtual-time
// scheduler, future assertions, and scripted operations.
package retryxtest

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a manually advanced clock. Sleep blocks until Advance moves
// the clock to the wake time or the context ends, whichever happens first.
type FakeClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	at    time.Time
	wake  chan struct{}
	fired bool
}

// NewFakeClock returns a FakeClock at a fixed, arbitrary instant.
func NewFakeClock() *FakeClock {
	c := &FakeClock{now: time.Unix(1700000000, 0).UTC()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		default:
			return nil
		}
	}
	c.mu.Lock()
	w := &waiter{at: c.now.Add(d), wake: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.cond.Broadcast()
	c.mu.Unlock()

	select {
	case <-w.wake:
		return nil
	case <-ctx.Done():
		c.remove(w)
		return context.Cause(ctx)
	}
}

// Advance moves the clock forward and wakes every sleeper whose wake time
// has been reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []chan struct{}
	keep := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.fired = true
			due = append(due, w.wake)
		} else {
			keep = append(keep, w)
		}
	}
	c.waiters = keep
	c.cond.Broadcast()
	c.mu.Unlock()
	for _, ch := range due {
		close(ch)
	}
}

// BlockUntil waits until at least n goroutines are sleeping on the clock.
// It lets a test line up a sleeper before advancing time.
func (c *FakeClock) BlockUntil(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.cond.Wait()
	}
}

// Sleepers returns how many goroutines are currently blocked in Sleep.
func (c *FakeClock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *FakeClock) remove(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.fired {
		return
	}
	for i, cand := range c.waiters {
		if cand == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	c.cond.Broadcast()
}
