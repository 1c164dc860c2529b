package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Clock) {
	for c.Len() > 0 {
		c.popNext().Execute(nil)
	}
}

func TestClock_EventsRunInTimestampOrder(t *testing.T) {
	// GIVEN events scheduled out of order
	c := NewClock()
	var order []string
	c.After(5, "c", func() { order = append(order, "c") })
	c.After(1, "a", func() { order = append(order, "a") })
	c.After(3, "b", func() { order = append(order, "b") })

	// WHEN the queue is drained
	drain(c)

	// THEN they run by timestamp and the clock ends at the last one
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 5.0, c.Now())
}

func TestClock_EqualTimestampsRunFIFO(t *testing.T) {
	c := NewClock()
	var order []int
	for i := 0; i < 5; i++ {
		c.After(2, "tie", func() { order = append(order, i) })
	}
	drain(c)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestClock_MaxBurstCountsEventsAtOneInstant(t *testing.T) {
	// GIVEN three events at t=2, one of which schedules a follow-up at the same
	// instant, and a lone event at t=5
	c := NewClock()
	c.After(2, "a", func() { c.After(0, "a'", func() {}) })
	c.After(2, "b", func() {})
	c.After(2, "c", func() {})
	c.After(5, "d", func() {})

	// WHEN the queue is drained
	drain(c)

	// THEN the longest run without time advancing is four events
	assert.Equal(t, 4, c.MaxBurst())
}

func TestClock_ScheduleInPastPanics(t *testing.T) {
	c := NewClock()
	c.After(4, "advance", func() {})
	drain(c)
	requireInvariant(t, func() { c.Schedule(&ResumeEvent{time: 1, fn: func() {}}) })
}

func TestClock_PeekTime(t *testing.T) {
	c := NewClock()
	_, ok := c.PeekTime()
	assert.False(t, ok)

	c.After(7, "x", func() {})
	next, ok := c.PeekTime()
	require.True(t, ok)
	assert.Equal(t, 7.0, next)
}

func TestTimeout_FiresAtDeadline(t *testing.T) {
	// GIVEN a 10-unit timeout
	c := NewClock()
	var calls []bool
	var at float64
	tm := c.Timeout(10, func(interrupted bool) {
		calls = append(calls, interrupted)
		at = c.Now()
	})

	// WHEN nothing interrupts it
	drain(c)

	// THEN it resumes once on the normal path at its deadline
	assert.Equal(t, []bool{false}, calls)
	assert.Equal(t, 10.0, at)
	assert.False(t, tm.Pending())
	assert.Equal(t, 10.0, tm.Deadline())
}

func TestTimeout_InterruptResumesAtCurrentTime(t *testing.T) {
	// GIVEN a 10-unit timeout and an interrupt scheduled at t=3
	c := NewClock()
	var calls []bool
	var at float64
	tm := c.Timeout(10, func(interrupted bool) {
		calls = append(calls, interrupted)
		at = c.Now()
	})
	c.After(3, "interrupt", tm.Interrupt)

	// WHEN the queue is drained, stale deadline included
	drain(c)

	// THEN the owner resumes exactly once, interrupted, at t=3
	assert.Equal(t, []bool{true}, calls)
	assert.Equal(t, 3.0, at)
	assert.Equal(t, 0.0, tm.Start())
}

func TestTimeout_InterruptAfterEndPanics(t *testing.T) {
	t.Run("already fired", func(t *testing.T) {
		c := NewClock()
		tm := c.Timeout(1, func(bool) {})
		drain(c)
		requireInvariant(t, tm.Interrupt)
	})
	t.Run("already interrupted", func(t *testing.T) {
		c := NewClock()
		tm := c.Timeout(1, func(bool) {})
		tm.Interrupt()
		requireInvariant(t, tm.Interrupt)
	})
}

func TestTimeout_NegativeDurationPanics(t *testing.T) {
	c := NewClock()
	requireInvariant(t, func() { c.Timeout(-1, func(bool) {}) })
}
