package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/fasthash/fnv1a"
)

// Pool is a Scheduler backend with a fixed set of worker goroutines, each
// draining its own FIFO queue. Tasks are sharded by a caller-chosen key, so
// all tasks scheduled under one key run in submission order on the same
// worker. Retry chains use their chain id as the key, which keeps each
// chain's continuations ordered while spreading unrelated chains across
// workers.
type Pool struct {
	maxWorkers int
	taskQueues []chan func()
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewPool creates a pool with maxWorkers workers, each with a task queue of
// queueBuffer capacity. Values below 1 are raised to 1.
func NewPool(maxWorkers int, queueBuffer int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueBuffer < 1 {
		queueBuffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		maxWorkers: maxWorkers,
		taskQueues: make([]chan func(), maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < maxWorkers; i++ {
		p.taskQueues[i] = make(chan func(), queueBuffer)
		p.wg.Add(1)
		go p.startWorker(p.taskQueues[i])
	}

	return p
}

func (p *Pool) startWorker(queue chan func()) {
	defer p.wg.Done()
	for {
		select {
		case task := <-queue:
			task()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) submit(key string, task func()) {
	if task == nil {
		return
	}
	idx := fnv1a.HashString64(key) % uint64(p.maxWorkers)
	select {
	case p.taskQueues[idx] <- task:
	case <-p.ctx.Done():
		// Tasks submitted after Stop are dropped.
	}
}

// For returns a Scheduler bound to key. All work it submits lands on the
// key's shard.
func (p *Pool) For(key string) Scheduler {
	return keyedScheduler{pool: p, key: key}
}

// Stop shuts the pool down and waits for the workers to exit. Pending queued
// tasks are discarded; the queues stay open, and submissions racing with Stop
// are dropped.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

type keyedScheduler struct {
	pool *Pool
	key  string
}

func (k keyedScheduler) ExecuteNow(task func()) {
	k.pool.submit(k.key, task)
}

func (k keyedScheduler) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	// 0 = pending, 1 = running, 2 = canceled.
	var state atomic.Int32
	run := func() {
		if state.CompareAndSwap(0, 1) {
			task()
		}
	}

	if d <= 0 {
		k.pool.submit(k.key, run)
		return func() bool {
			return state.CompareAndSwap(0, 2)
		}
	}

	timer := time.AfterFunc(d, func() {
		k.pool.submit(k.key, run)
	})
	return func() bool {
		timer.Stop()
		return state.CompareAndSwap(0, 2)
	}
}
