package sim

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulated time) and an Execute method that
// advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Execute(*Simulator)
}

// ResumeEvent resumes a suspended process at a given time. Decision
// resolutions, interruptions and wake-ups all resume through this event so
// they stay ordered with everything else on the clock.
type ResumeEvent struct {
	time  float64
	Label string // what is being resumed, for debug logs
	fn    func()
}

func (e *ResumeEvent) Timestamp() float64 { return e.time }

func (e *ResumeEvent) Execute(_ *Simulator) { e.fn() }

// TimeoutEvent fires a Timeout when its deadline elapses. If the timeout was
// interrupted first, the event is stale and does nothing.
type TimeoutEvent struct {
	timeout *Timeout
}

func (e *TimeoutEvent) Timestamp() float64 { return e.timeout.deadline }

func (e *TimeoutEvent) Execute(_ *Simulator) {
	t := e.timeout
	if t.state != timeoutPending {
		return
	}
	t.state = timeoutFired
	t.resume(false)
}

// DemandArrivalEvent is the next retrieval demand at an output point.
type DemandArrivalEvent struct {
	time  float64
	point *OutputPoint
}

func (e *DemandArrivalEvent) Timestamp() float64 { return e.time }

// Execute registers the demand; the next arrival is scheduled once a crane
// claims the job.
func (e *DemandArrivalEvent) Execute(sim *Simulator) {
	sim.handleDemandArrival(e.point)
}
