package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/stockyard-sim/stockyard-sim/sim/trace"
)

// CraneStatus is the phase of the crane's current job.
type CraneStatus string

const (
	StatusIdle      CraneStatus = "idle"
	StatusLoading   CraneStatus = "loading"
	StatusUnloading CraneStatus = "unloading"
)

// Crane is one of the two gantry cranes sharing the rail. It runs as a chain of
// continuations on the clock: every wait (a decision, a leg, an avoidance
// pause, an idle park) ends by calling back into one of the methods below.
type Crane struct {
	id   int
	name string
	cfg  CraneConfig
	sim  *Simulator

	pos     Position
	status  CraneStatus
	job     JobType
	offset  Location
	payload []Plate

	// Current pass: location IDs to visit in order and the index of the next stop.
	targetSeq []string
	stopIdx   int
	target    Location
	targetPos Position
	hasTarget bool

	// In-flight leg.
	leg      *Timeout
	legFrom  Position
	legTo    Position
	avoiding bool

	// yielding is set while the crane gives way: on an avoidance leg or
	// waiting after it. waiting covers only the stationary part.
	yielding   bool
	waiting    bool
	waitStart  float64
	holding    bool // re-plan deferred until the other crane's priority is decided
	parkedIdle bool
	idleStart  float64

	metrics CraneMetrics
}

func newCrane(id int, cfg CraneConfig, sim *Simulator) *Crane {
	return &Crane{
		id:     id,
		name:   cfg.Name,
		cfg:    cfg,
		sim:    sim,
		pos:    Position{X: cfg.InitialBay, Y: cfg.InitialRow},
		status: StatusIdle,
	}
}

func (c *Crane) ID() int             { return c.id }
func (c *Crane) Name() string        { return c.name }
func (c *Crane) Status() CraneStatus { return c.status }
func (c *Crane) Job() JobType        { return c.job }

// Position returns the crane's position at the current simulated time,
// interpolating an in-flight leg.
func (c *Crane) Position() Position { return c.PositionAt(c.sim.clock.Now()) }

// PositionAt returns the crane's position at time t, which must not precede
// the start of the current leg.
func (c *Crane) PositionAt(t float64) Position {
	if c.leg == nil {
		return c.pos
	}
	return integrate(c.legFrom, c.legTo, c.cfg.VelocityX, c.cfg.VelocityY,
		t-c.leg.Start(), c.sim.cfg.BayRange, c.sim.cfg.RowRange)
}

// Payload returns a copy of the carried plates, bottom first.
func (c *Crane) Payload() []Plate {
	return append([]Plate(nil), c.payload...)
}

// Offset returns the location that started the current job, or nil when idle.
func (c *Crane) Offset() Location { return c.offset }

// Metrics returns the crane's accumulated statistics.
func (c *Crane) Metrics() CraneMetrics { return c.metrics }

// ParkedIdle reports whether the crane is parked waiting for new work.
func (c *Crane) ParkedIdle() bool { return c.parkedIdle }

// WaitingForAvoidance reports whether the crane is stopped, giving way to the
// other crane.
func (c *Crane) WaitingForAvoidance() bool { return c.waiting }

func (c *Crane) moving() bool { return c.leg != nil && c.leg.Pending() }

func (c *Crane) other() *Crane { return c.sim.cranes[1-c.id] }

func (c *Crane) record(kind trace.EventKind, location string, plate string, avoidance bool) {
	c.sim.events.Record(trace.Record{
		Time:      c.sim.clock.Now(),
		Kind:      kind,
		Crane:     c.name,
		Location:  location,
		Plate:     plate,
		X:         c.pos.X,
		Y:         c.pos.Y,
		Avoidance: avoidance,
	})
}

// requestWork asks the broker for the next job.
func (c *Crane) requestWork() {
	c.status = StatusIdle
	c.job = ""
	c.offset = nil
	c.hasTarget = false
	c.sim.broker.RequestSequencing(SequencingRequest{
		CraneID:       c.id,
		CranePosition: c.pos,
		Candidates:    c.sim.candidatesFor(c),
	}, c.onSequenced)
}

func (c *Crane) onSequenced(choice Candidate, ok bool) {
	if !ok {
		c.parkIdle()
		return
	}
	c.job = choice.Job
	c.offset = c.sim.locations[choice.LocationID]
	c.status = StatusLoading
	logrus.Debugf("[t %10.3f] %s starts %s job at %s", c.sim.clock.Now(), c.name, c.job, choice.LocationID)
	c.sim.broker.RequestLoading(c.sim.loadingRequestFor(c), c.onLoaded)
}

// onLoaded starts the loading pass. An empty batch means the job was
// abandoned because its sources vanished.
func (c *Crane) onLoaded(batch []string) {
	if len(batch) == 0 {
		logrus.Debugf("[t %10.3f] %s abandons %s job at %s", c.sim.clock.Now(), c.name, c.job, c.offset.ID())
		c.sim.abandonJob(c)
		c.requestWork()
		return
	}
	c.targetSeq = batch
	c.stopIdx = 0
	c.beginPass()
}

func (c *Crane) beginPass() {
	if len(c.targetSeq) == 0 {
		invariant("beginPass", "%s has an empty %s sequence", c.name, c.status)
	}
	c.nextStop()
}

// nextStop targets the next location of the pass, or finishes the pass.
func (c *Crane) nextStop() {
	if c.status != StatusLoading && c.status != StatusUnloading {
		invariant("nextStop", "Invalid Access: %s moving in status %q", c.name, c.status)
	}
	if c.stopIdx >= len(c.targetSeq) {
		c.passDone()
		return
	}
	c.target = c.sim.locations[c.targetSeq[c.stopIdx]]
	c.hasTarget = true
	c.plan()
}

// plan checks the path to the current target against the other crane. A
// clear path starts the leg. Otherwise a parked or yielding opponent is sent
// out of the way, a busy one that is not moving is waited for, and a conflict
// between two moving cranes goes to the broker.
func (c *Crane) plan() {
	now := c.sim.clock.Now()
	c.targetPos = c.sim.clampPosition(c.target.TargetFrom(c.pos))
	margin := c.sim.cfg.SafetyMargin

	other := c.other()
	if c.sim.broker.AwaitingPriority(other.id) {
		c.holding = true
		return
	}
	if !predictConflict(c, other, now, margin) {
		c.startLeg(c.targetPos, false)
		return
	}
	switch {
	case other.parkedIdle || other.yielding:
		if !other.moving() {
			other.clear(c.targetPos.X)
		}
		c.approach(other)
	case !other.moving():
		c.approach(other)
	default:
		logrus.Debugf("[t %10.3f] %s predicts interference with %s on the way to %s",
			now, c.name, other.name, c.target.ID())
		other.leg.Interrupt()
		c.sim.broker.RequestPrioritizing(c.id, other.id, c.onPriority)
	}
}

// onPriority settles a conflict with the other crane, which is holding at the
// point its leg was cut. High sends the other crane out of the way; low makes
// this crane detour and wait.
func (c *Crane) onPriority(p Priority) {
	now := c.sim.clock.Now()
	other := c.other()
	held := other.holding
	other.holding = false
	switch p {
	case PriorityHigh:
		other.yielding = true
		other.clear(c.targetPos.X)
		c.plan()
	case PriorityLow:
		x := c.detourX(other, now, c.sim.cfg.SafetyMargin, c.sim.cfg.BayRange)
		c.metrics.Detours++
		c.giveWay(Position{X: x, Y: c.targetPos.Y})
		if held {
			c.sim.clock.After(0, "hold", other.plan)
		}
	default:
		invariant("onPriority", "unknown priority %q for %s", p, c.name)
	}
}

// approach drives as close to the target as other's committed motion allows,
// then waits for it.
func (c *Crane) approach(other *Crane) {
	x := c.boundaryX(other, c.sim.clock.Now(), c.sim.cfg.SafetyMargin)
	if c.id == 0 {
		x = math.Min(x, c.targetPos.X)
	} else {
		x = math.Max(x, c.targetPos.X)
	}
	c.giveWay(Position{X: c.sim.cfg.BayRange.Clamp(x), Y: c.targetPos.Y})
}

// giveWay moves to dest on an avoidance leg and waits there. A crane already
// at dest's bay waits where it is.
func (c *Crane) giveWay(dest Position) {
	c.yielding = true
	if math.Abs(dest.X-c.pos.X) <= gapTolerance {
		c.startWaiting()
		return
	}
	c.startLeg(dest, true)
}

// clear moves a parked or yielding crane far enough from forX for the other
// crane to reach it.
func (c *Crane) clear(forX float64) {
	x := c.clearanceX(forX, c.sim.cfg.SafetyMargin, c.sim.cfg.BayRange)
	if c.clearOf(x) {
		if c.yielding && !c.waiting {
			c.startWaiting()
		}
		return
	}
	now := c.sim.clock.Now()
	if c.waiting {
		c.waiting = false
		c.metrics.AvoidingTime += now - c.waitStart
		c.record(trace.KindWaitingFinish, "", "", false)
	}
	if c.parkedIdle {
		c.metrics.IdleTime += now - c.idleStart
	}
	logrus.Debugf("[t %10.3f] %s clears the way to bay %.1f for %s", now, c.name, forX, c.other().name)
	c.startLeg(Position{X: x, Y: c.pos.Y}, true)
}

func (c *Crane) startLeg(dest Position, avoidance bool) {
	c.legFrom = c.pos
	c.legTo = c.sim.clampPosition(dest)
	c.avoiding = avoidance
	d := travelTime(c.legFrom, c.legTo, c.cfg.VelocityX, c.cfg.VelocityY)
	c.record(trace.KindMoveFrom, c.sim.locationAt(c.pos), "", avoidance)
	logrus.Tracef("[t %10.3f] %s leg (%.1f,%.1f) -> (%.1f,%.1f) in %.2f",
		c.sim.clock.Now(), c.name, c.legFrom.X, c.legFrom.Y, c.legTo.X, c.legTo.Y, d)
	c.leg = c.sim.clock.Timeout(d, c.onLegEnd)
}

func (c *Crane) onLegEnd(interrupted bool) {
	now := c.sim.clock.Now()
	elapsed := now - c.leg.Start()
	c.pos = c.PositionAt(now)
	c.leg = nil
	avoiding := c.avoiding
	c.avoiding = false

	switch {
	case avoiding:
		c.metrics.AvoidingTime += elapsed
	default:
		c.metrics.MovingTime += elapsed
		if len(c.payload) == 0 {
			c.metrics.EmptyTravelTime += elapsed
		}
	}

	if interrupted {
		c.metrics.Interferences++
		c.record(trace.KindInterferencePredicted, "", "", false)
		c.plan()
		return
	}

	if avoiding {
		c.record(trace.KindMoveTo, c.sim.locationAt(c.pos), "", false)
		if c.parkedIdle {
			c.idleStart = now
			c.record(trace.KindIdleStart, c.sim.locationAt(c.pos), "", false)
			c.other().release()
			c.sim.notifyWork()
			return
		}
		c.startWaiting()
		return
	}

	c.record(trace.KindMoveTo, c.target.ID(), "", false)
	c.stopIdx++
	c.serviceStop()
	c.nextStop()
	c.other().release()
}

// serviceStop picks up or puts down one plate at the current target.
func (c *Crane) serviceStop() {
	switch c.status {
	case StatusLoading:
		p := c.target.GetPlate()
		c.payload = append(c.payload, p)
		c.metrics.PickUps++
		c.record(trace.KindPickUp, c.target.ID(), p.Name, false)
	case StatusUnloading:
		if len(c.payload) == 0 {
			invariant("serviceStop", "%s unloading with an empty payload", c.name)
		}
		p := c.payload[len(c.payload)-1]
		if p.Destination != c.target.ID() {
			invariant("serviceStop", "%s would put %s (to %s) on %s", c.name, p.Name, p.Destination, c.target.ID())
		}
		c.payload = c.payload[:len(c.payload)-1]
		c.target.PutPlate(p)
		c.metrics.PutDowns++
		c.record(trace.KindPutDown, c.target.ID(), p.Name, false)
	}
	c.sim.refreshReadiness(c.target)
}

func (c *Crane) passDone() {
	switch c.status {
	case StatusLoading:
		c.sim.releaseSources(c)
		c.status = StatusUnloading
		c.targetSeq = unloadingSequence(c.payload)
		c.stopIdx = 0
		c.beginPass()
	case StatusUnloading:
		c.metrics.JobsCompleted++
		c.sim.jobDone(c)
		c.hasTarget = false
		c.requestWork()
	}
}

// unloadingSequence lists the destinations of the payload, top plate first.
func unloadingSequence(payload []Plate) []string {
	seq := make([]string, 0, len(payload))
	for i := len(payload) - 1; i >= 0; i-- {
		seq = append(seq, payload[i].Destination)
	}
	return seq
}

// parkIdle waits until new work is registered.
func (c *Crane) parkIdle() {
	c.status = StatusIdle
	c.parkedIdle = true
	c.idleStart = c.sim.clock.Now()
	c.record(trace.KindIdleStart, c.sim.locationAt(c.pos), "", false)
	c.other().release()
}

// wake resumes a parked crane through a new sequencing request. A parked
// crane still clearing the way is woken once it stops.
func (c *Crane) wake() {
	if !c.parkedIdle || c.moving() {
		return
	}
	c.parkedIdle = false
	c.metrics.IdleTime += c.sim.clock.Now() - c.idleStart
	c.record(trace.KindIdleFinish, c.sim.locationAt(c.pos), "", false)
	c.sim.clock.After(0, "wake", c.requestWork)
}

// startWaiting parks a yielding crane until the other crane completes a leg,
// parks or starts waiting itself. A parked opponent cannot release anyone, so
// the crane re-plans at once. When both would wait, this crane goes on if its
// path is clear and the other one re-plans otherwise.
func (c *Crane) startWaiting() {
	now := c.sim.clock.Now()
	c.waiting = true
	c.waitStart = now
	c.record(trace.KindWaitingStart, "", "", false)
	other := c.other()
	switch {
	case other.parkedIdle && !other.moving():
		c.release()
	case other.waiting:
		if predictConflict(c, other, now, c.sim.cfg.SafetyMargin) {
			other.release()
		} else {
			c.release()
		}
	}
}

// release ends a wait; the crane re-plans its leg on the next tick.
func (c *Crane) release() {
	if !c.waiting {
		return
	}
	c.waiting = false
	c.yielding = false
	c.metrics.AvoidingTime += c.sim.clock.Now() - c.waitStart
	c.record(trace.KindWaitingFinish, "", "", false)
	c.sim.clock.After(0, "avoidance", c.plan)
}

// closeAccounts charges open intervals up to now when the run ends.
func (c *Crane) closeAccounts(now float64) {
	switch {
	case c.leg != nil && c.leg.Pending():
		elapsed := now - c.leg.Start()
		if c.avoiding {
			c.metrics.AvoidingTime += elapsed
		} else {
			c.metrics.MovingTime += elapsed
		}
	case c.waiting:
		c.metrics.AvoidingTime += now - c.waitStart
	case c.parkedIdle:
		c.metrics.IdleTime += now - c.idleStart
	}
}
