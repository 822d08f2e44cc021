package delay_test

import (
	"context"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/seb7887/retryx/delay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for budget tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(123456789, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func durations(s delay.Seq) []time.Duration {
	var out []time.Duration
	for d := range s {
		out = append(out, d.Duration())
	}
	return out
}

func TestValues_YieldsInOrder(t *testing.T) {
	s := delay.Values(delay.Of(time.Second), delay.Of(2*time.Second))

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, durations(s))
	// Restartable: a second iteration sees the same elements.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, durations(s))
}

func TestFixed_RepeatsDelay(t *testing.T) {
	s := delay.Fixed(delay.Of(time.Second), 3)

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, durations(s))
	assert.Empty(t, durations(delay.Fixed(delay.Of(time.Second), 0)))
	assert.Panics(t, func() { delay.Fixed(delay.Of(time.Second), -1) })
}

func TestCountAndIsEmpty(t *testing.T) {
	assert.Equal(t, 0, delay.Count(delay.Values()))
	assert.Equal(t, 2, delay.Count(delay.Values(delay.Of(1), delay.Of(2))))
	assert.True(t, delay.IsEmpty(delay.Values()))
	assert.False(t, delay.IsEmpty(delay.Values(delay.Of(1))))
}

func TestGuarded_Toggle(t *testing.T) {
	guard := true
	s := delay.Guarded(
		delay.Values(delay.Of(time.Millisecond), delay.Of(2*time.Millisecond)),
		func() bool { return guard },
	)

	assert.Equal(t, 2, delay.Count(s))
	assert.False(t, delay.IsEmpty(s))
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, durations(s))

	guard = false
	assert.Equal(t, 0, delay.Count(s))
	assert.True(t, delay.IsEmpty(s))

	guard = true
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, durations(s))
}

func TestGuarded_FlippingMidIterationStopsTheWalk(t *testing.T) {
	guard := true
	s := delay.Guarded(delay.Fixed(delay.Of(time.Second), 5), func() bool { return guard })

	var seen int
	for range s {
		seen++
		guard = false
	}

	assert.Equal(t, 1, seen)
}

func TestGuarded_NilArguments(t *testing.T) {
	assert.Panics(t, func() { delay.Guarded(nil, func() bool { return true }) })
	assert.Panics(t, func() { delay.Guarded(delay.Values(), nil) })
}

func TestTimeLimited_StopsOnceBudgetReached(t *testing.T) {
	clk := newFakeClock()
	s := delay.TimeLimited(delay.Fixed(delay.Of(time.Second), 100), 3*time.Second, clk)

	// Simulate the engine: pull one delay, then let a second of fake time
	// pass before pulling the next one.
	next, stop := iter.Pull(s)
	defer stop()

	var granted int
	for {
		d, ok := next()
		if !ok {
			break
		}
		granted++
		clk.advance(d.Duration())
	}

	assert.Equal(t, 3, granted)
}

func TestTimeLimited_BudgetRunsFromFirstPullNotConstruction(t *testing.T) {
	clk := newFakeClock()
	s := delay.TimeLimited(delay.Fixed(delay.Of(time.Second), 10), 3*time.Second, clk)

	clk.advance(time.Hour)

	next, stop := iter.Pull(s)
	defer stop()
	_, ok := next()
	assert.True(t, ok, "budget must start at the first pull, not at construction")
}

func TestTimeLimited_EachIterationGetsItsOwnBudget(t *testing.T) {
	clk := newFakeClock()
	s := delay.TimeLimited(delay.Fixed(delay.Of(time.Second), 100), 2*time.Second, clk)

	walk := func() int {
		granted := 0
		for d := range s {
			granted++
			clk.advance(d.Duration())
		}
		return granted
	}

	assert.Equal(t, 2, walk())
	assert.Equal(t, 2, walk())
}

func TestTimeLimited_ZeroBudgetIsEmpty(t *testing.T) {
	clk := newFakeClock()
	s := delay.TimeLimited(delay.Fixed(delay.Of(time.Second), 5), 0, clk)

	assert.True(t, delay.IsEmpty(s))
}

func TestTimeLimited_InvalidArguments(t *testing.T) {
	clk := newFakeClock()
	assert.Panics(t, func() { delay.TimeLimited(nil, time.Second, clk) })
	assert.Panics(t, func() { delay.TimeLimited(delay.Values(), time.Second, nil) })
	assert.Panics(t, func() { delay.TimeLimited(delay.Values(), -time.Second, clk) })
}

func TestRandomize_ResamplesEveryIteration(t *testing.T) {
	day := 24 * time.Hour
	src := &fixedDraws{draws: []float64{0, 1}}
	s := delay.Randomize(delay.Values(delay.Of(day)), src, 0.5)

	first := slices.Collect(s)
	second := slices.Collect(s)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 12*time.Hour, first[0].Duration())
	assert.Equal(t, 36*time.Hour, second[0].Duration())
}

func TestRandomize_InvalidArguments(t *testing.T) {
	src := &fixedDraws{draws: []float64{0.5}}
	assert.Panics(t, func() { delay.Randomize(nil, src, 0.5) })
	assert.Panics(t, func() { delay.Randomize(delay.Values(), nil, 0.5) })
	assert.Panics(t, func() { delay.Randomize(delay.Values(), src, 2) })
}
