package retryxtest

import (
	"context"
	"fmt"
	"sync"
)

// Script builds a deterministic operation for retry tests: each call
// consumes the next scripted outcome. Calls beyond the script fail with a
// distinctive error so a runaway retry loop shows up in assertions.
type Script[T any] struct {
	mu    sync.Mutex
	steps []scriptStep[T]
	calls int
}

type scriptStep[T any] struct {
	v   T
	err error
}

// NewScript returns an empty script.
func NewScript[T any]() *Script[T] {
	return &Script[T]{}
}

// Fail appends a failing call returning err.
func (s *Script[T]) Fail(err error) *Script[T] {
	s.steps = append(s.steps, scriptStep[T]{err: err})
	return s
}

// FailTimes appends n failing calls returning err.
func (s *Script[T]) FailTimes(n int, err error) *Script[T] {
	for range n {
		s.Fail(err)
	}
	return s
}

// Succeed appends a successful call returning v.
func (s *Script[T]) Succeed(v T) *Script[T] {
	s.steps = append(s.steps, scriptStep[T]{v: v})
	return s
}

// Op returns the operation that plays the script.
func (s *Script[T]) Op() func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls++
		if s.calls > len(s.steps) {
			var zero T
			return zero, fmt.Errorf("retryxtest: unscripted call %d", s.calls)
		}
		st := s.steps[s.calls-1]
		return st.v, st.err
	}
}

// Calls returns how many times the scripted operation ran.
func (s *Script[T]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
