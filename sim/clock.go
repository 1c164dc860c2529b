package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry struct {
	event Event
	seqID int64
}

// eventQueue is a min-heap ordered by (Timestamp, seqID).
// Implements heap.Interface.
type eventQueue []eventEntry

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].event.Timestamp() != q[j].event.Timestamp() {
		return q[i].event.Timestamp() < q[j].event.Timestamp()
	}
	return q[i].seqID < q[j].seqID
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(eventEntry))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Clock owns simulated time and the event queue. Time never decreases.
// One Clock exists per Simulator; nothing is shared between runs.
type Clock struct {
	now     float64
	queue   eventQueue
	nextSeq int64

	// burst counts the events run at the current timestamp so far.
	burst    int
	maxBurst int
}

// NewClock returns a clock at time zero with an empty queue.
func NewClock() *Clock {
	return &Clock{queue: make(eventQueue, 0)}
}

// Now returns the current simulated time.
func (c *Clock) Now() float64 { return c.now }

// Schedule pushes an event onto the queue. Scheduling into the past is a bug.
func (c *Clock) Schedule(ev Event) {
	if ev.Timestamp() < c.now {
		invariant("Schedule", "event %T at %.3f is before now %.3f", ev, ev.Timestamp(), c.now)
	}
	heap.Push(&c.queue, eventEntry{event: ev, seqID: c.nextSeq})
	c.nextSeq++
}

// After schedules fn to run delay time units from now.
func (c *Clock) After(delay float64, label string, fn func()) {
	c.Schedule(&ResumeEvent{time: c.now + delay, Label: label, fn: fn})
}

// Len returns the number of queued events, stale timeouts included.
func (c *Clock) Len() int { return len(c.queue) }

// PeekTime returns the timestamp of the earliest queued event.
func (c *Clock) PeekTime() (float64, bool) {
	if len(c.queue) == 0 {
		return 0, false
	}
	return c.queue[0].event.Timestamp(), true
}

// MaxBurst returns the largest number of events run at a single timestamp.
func (c *Clock) MaxBurst() int { return c.maxBurst }

// advanceTo moves time forward to t without running events. Used to stop a
// run at its horizon.
func (c *Clock) advanceTo(t float64) {
	if t > c.now {
		c.now = t
	}
}

// popNext removes the earliest event and advances the clock to its timestamp.
func (c *Clock) popNext() Event {
	if len(c.queue) == 0 {
		return nil
	}
	entry := heap.Pop(&c.queue).(eventEntry)
	if t := entry.event.Timestamp(); t > c.now || c.burst == 0 {
		c.burst = 1
	} else {
		c.burst++
	}
	c.maxBurst = max(c.maxBurst, c.burst)
	c.now = entry.event.Timestamp()
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Tracef("[t %10.3f] Executing %s", c.now, describeEvent(entry.event))
	}
	return entry.event
}

func describeEvent(ev Event) string {
	if r, ok := ev.(*ResumeEvent); ok {
		return fmt.Sprintf("resume %s", r.Label)
	}
	return fmt.Sprintf("%T", ev)
}

type timeoutState int

const (
	timeoutPending timeoutState = iota
	timeoutFired
	timeoutInterrupted
)

// Timeout is a suspended wait on the clock. It ends either by elapsing
// (resume(false)) or by being interrupted by another process (resume(true)),
// never both.
type Timeout struct {
	clock    *Clock
	start    float64
	deadline float64
	state    timeoutState
	resume   func(interrupted bool)
}

// Timeout suspends the caller for duration and resumes it through resume.
func (c *Clock) Timeout(duration float64, resume func(interrupted bool)) *Timeout {
	if duration < 0 {
		invariant("Timeout", "negative duration %.3f", duration)
	}
	t := &Timeout{clock: c, start: c.now, deadline: c.now + duration, resume: resume}
	c.Schedule(&TimeoutEvent{timeout: t})
	return t
}

// Start returns the time the wait began.
func (t *Timeout) Start() float64 { return t.start }

// Deadline returns the time the wait elapses if not interrupted.
func (t *Timeout) Deadline() float64 { return t.deadline }

// Pending reports whether the wait has neither elapsed nor been interrupted.
func (t *Timeout) Pending() bool { return t.state == timeoutPending }

// Interrupt cancels the wait. The owner resumes at the current time on its
// interrupted path. Interrupting a wait that already ended is a bug.
func (t *Timeout) Interrupt() {
	switch t.state {
	case timeoutFired:
		invariant("Interrupt", "timeout ending at %.3f already fired", t.deadline)
	case timeoutInterrupted:
		invariant("Interrupt", "timeout ending at %.3f already interrupted", t.deadline)
	}
	t.state = timeoutInterrupted
	t.clock.After(0, "interrupt", func() { t.resume(true) })
}
