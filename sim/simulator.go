package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stockyard-sim/stockyard-sim/sim/trace"
)

// DecisionPolicy answers the three kinds of broker decisions. Implementations
// live in sim/policy; Simulator.Run drives one against a simulation.
type DecisionPolicy interface {
	// Sequence returns the chosen candidate's location ID, or "" for none.
	Sequence(req SequencingRequest) string
	// Load returns the ordered list of locations to pick from.
	Load(req LoadingRequest) []string
	Prioritize(req PrioritizingRequest) Priority
}

// Simulator is the two-crane stockyard: the clock, the broker, the yard
// locations and both cranes. An external policy advances it one decision at a
// time through PendingDecisions, the Resolve* methods and
// AdvanceUntilNextDecision.
type Simulator struct {
	cfg    YardConfig
	clock  *Clock
	broker *Broker
	rng    *PartitionedRNG
	events *trace.EventLog
	cranes [NumCranes]*Crane

	locations     map[string]Location
	locationOrder []string
	inputs        []*InputPoint
	piles         []*Pile
	outputs       []*OutputPoint

	claims      map[string]int // location ID -> crane ID holding it for its job
	nextPlateID int
	plateCount  int

	metrics  *Metrics
	finished bool
}

// NewSimulator builds the yard from cfg, stacks the workload's plates at their
// origins and schedules both cranes and the first demand arrival of every
// output point at time zero.
func NewSimulator(cfg YardConfig, wl Workload) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("yard config: %w", err)
	}
	clock := NewClock()
	sim := &Simulator{
		cfg:       cfg,
		clock:     clock,
		broker:    NewBroker(clock),
		rng:       NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		events:    trace.NewEventLog(cfg.RecordEvents),
		locations: make(map[string]Location),
		claims:    make(map[string]int),
		metrics:   NewMetrics(),
	}
	sim.buildLocations()
	if err := sim.loadWorkload(wl); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	for i := range sim.cranes {
		sim.cranes[i] = newCrane(i, cfg.Cranes[i], sim)
	}
	for _, loc := range sim.locationOrder {
		sim.refreshReadiness(sim.locations[loc])
	}
	for _, c := range sim.cranes {
		sim.clock.After(0, "start "+c.name, c.requestWork)
	}
	for _, op := range sim.outputs {
		sim.scheduleDemand(op)
	}
	logrus.Infof("Yard ready: %d locations, %d plates, %d cranes", len(sim.locations), sim.plateCount, NumCranes)
	return sim, nil
}

// Now returns the current simulated time.
func (sim *Simulator) Now() float64 { return sim.clock.Now() }

// Finished reports whether the run has ended.
func (sim *Simulator) Finished() bool { return sim.finished }

// Crane returns the crane with the given ID.
func (sim *Simulator) Crane(id int) (*Crane, error) {
	if id < 0 || id >= NumCranes {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCrane, id)
	}
	return sim.cranes[id], nil
}

// Location returns the location with the given ID.
func (sim *Simulator) Location(id string) (Location, bool) {
	loc, ok := sim.locations[id]
	return loc, ok
}

// Events returns the event log. It is empty unless RecordEvents is set.
func (sim *Simulator) Events() *trace.EventLog { return sim.events }

// Metrics returns the run statistics; crane figures are final once the run ends.
func (sim *Simulator) Metrics() *Metrics {
	m := *sim.metrics
	m.SimEndedTime = sim.clock.Now()
	m.PlatesTotal = sim.plateCount
	m.PlatesDelivered = sim.deliveredPlates()
	for i, c := range sim.cranes {
		m.Cranes[i] = c.metrics
		m.Cranes[i].Name = c.name
	}
	return &m
}

func (sim *Simulator) scheduleDemand(op *OutputPoint) {
	iat := op.sampler.SampleIAT(sim.rng.ForSubsystem(SubsystemOutputPoint(op.id)))
	sim.clock.Schedule(&DemandArrivalEvent{time: sim.clock.Now() + iat, point: op})
}

func (sim *Simulator) handleDemandArrival(op *OutputPoint) {
	now := sim.clock.Now()
	op.demand = true
	op.arrivals = append(op.arrivals, now)
	sim.metrics.DemandArrivals++
	sim.events.Record(trace.Record{Time: now, Kind: trace.KindRetrievalArrival, Location: op.id, X: op.bay})
	logrus.Debugf("[t %10.3f] retrieval demand at %s", now, op.id)
	sim.refreshReadiness(op)
}

// notifyWork wakes parked cranes once there is something for them to do.
func (sim *Simulator) notifyWork() {
	for _, c := range sim.cranes {
		if c != nil && c.parkedIdle && !c.moving() && len(sim.candidatesFor(c)) > 0 {
			c.wake()
		}
	}
}

// PendingDecisions returns every decision the broker is waiting on, with
// candidate and source lists refreshed to the current yard state.
func (sim *Simulator) PendingDecisions() PendingDecisions {
	sim.syncPending()
	return sim.broker.SnapshotPending()
}

func (sim *Simulator) syncPending() {
	for _, c := range sim.cranes {
		if _, ok := sim.broker.Sequencing(c.id); ok {
			sim.broker.setSequencingCandidates(c.id, c.pos, sim.candidatesFor(c))
		}
		if _, ok := sim.broker.Loading(c.id); ok {
			sim.broker.setLoadingRequest(sim.loadingRequestFor(c))
		}
	}
}

func (sim *Simulator) pendingCrane(craneID int) (*Crane, error) {
	if sim.finished {
		return nil, ErrSimulationFinished
	}
	return sim.Crane(craneID)
}

// ResolveSequencing sends the crane to locationID, which must be one of its
// current candidates. An empty locationID means no job: the crane parks idle
// until new work is registered.
func (sim *Simulator) ResolveSequencing(craneID int, locationID string) error {
	c, err := sim.pendingCrane(craneID)
	if err != nil {
		return err
	}
	if _, ok := sim.broker.Sequencing(craneID); !ok {
		return fmt.Errorf("%w: crane %d has no sequencing request", ErrNoPendingDecision, craneID)
	}
	if locationID == "" {
		sim.broker.ResolveSequencing(craneID, Candidate{}, false)
		return nil
	}
	var choice *Candidate
	for _, cand := range sim.candidatesFor(c) {
		if cand.LocationID == locationID {
			choice = &cand
			break
		}
	}
	if choice == nil {
		logrus.Warnf("crane %d: rejected sequencing choice %q", craneID, locationID)
		return fmt.Errorf("%w: crane %d cannot be sent to %q", ErrInvalidChoice, craneID, locationID)
	}
	loc := sim.locations[locationID]
	if op, ok := loc.(*OutputPoint); ok {
		op.demand = false
		sim.scheduleDemand(op)
	}
	sim.claim(craneID, loc)
	sim.broker.ResolveSequencing(craneID, *choice, true)
	return nil
}

// ResolveLoading accepts the crane's loading batch: the ordered locations to
// pick one plate from each. Rejected batches leave the request pending.
func (sim *Simulator) ResolveLoading(craneID int, batch []string) error {
	c, err := sim.pendingCrane(craneID)
	if err != nil {
		return err
	}
	if _, ok := sim.broker.Loading(craneID); !ok {
		return fmt.Errorf("%w: crane %d has no loading request", ErrNoPendingDecision, craneID)
	}
	req := sim.loadingRequestFor(c)
	if err := sim.validateBatch(c, req, batch); err != nil {
		logrus.Warnf("crane %d: rejected loading batch %v: %v", craneID, batch, err)
		return err
	}
	for _, id := range batch {
		if _, held := sim.claims[id]; !held {
			sim.claim(craneID, sim.locations[id])
		}
	}
	for _, id := range batchDestinations(req, batch) {
		if _, held := sim.claims[id]; !held {
			sim.claim(craneID, sim.locations[id])
		}
	}
	sim.broker.ResolveLoading(craneID, batch)
	return nil
}

// ResolvePrioritizing answers a crane's interference conflict: high sends the
// other crane aside and proceeds, low detours short of the other crane and
// waits.
func (sim *Simulator) ResolvePrioritizing(craneID int, p Priority) error {
	if _, err := sim.pendingCrane(craneID); err != nil {
		return err
	}
	if _, ok := sim.broker.Prioritizing(craneID); !ok {
		return fmt.Errorf("%w: crane %d has no prioritizing request", ErrNoPendingDecision, craneID)
	}
	if p != PriorityHigh && p != PriorityLow {
		return fmt.Errorf("%w: priority %q", ErrInvalidChoice, p)
	}
	sim.broker.ResolvePrioritizing(craneID, p)
	return nil
}

// AdvanceUntilNextDecision processes events until a decision is pending and
// nothing else can happen at the current time, or until the run ends.
// Returns true once the run has ended.
func (sim *Simulator) AdvanceUntilNextDecision() bool {
	for !sim.finished {
		sim.autoResolve()
		next, more := sim.clock.PeekTime()
		if sim.broker.HasPending() && (!more || next > sim.clock.Now()) {
			return false
		}
		if !sim.broker.HasPending() && sim.quiescent() {
			sim.finish("all work done")
			break
		}
		if !more {
			sim.finish("no events left")
			break
		}
		if sim.cfg.Horizon > 0 && next > sim.cfg.Horizon {
			sim.clock.advanceTo(sim.cfg.Horizon)
			sim.finish("horizon reached")
			break
		}
		sim.Step()
	}
	return true
}

// maxEventsAtInstant bounds the events one timestamp may run. A longer burst
// means the cranes hand control back and forth without time advancing.
const maxEventsAtInstant = 100000

// Step executes the next event.
func (sim *Simulator) Step() {
	ev := sim.clock.popNext()
	if sim.clock.burst > maxEventsAtInstant {
		invariant("Step", "%d events at t=%.3f without time advancing", sim.clock.burst, sim.clock.Now())
	}
	ev.Execute(sim)
}

// MaxEventsAtInstant returns the longest run of events that shared one
// timestamp so far.
func (sim *Simulator) MaxEventsAtInstant() int { return sim.clock.MaxBurst() }

// autoResolve settles decisions that have exactly one legal answer: a
// sequencing request without candidates, and a loading request whose sources
// vanished.
func (sim *Simulator) autoResolve() {
	sim.syncPending()
	pd := sim.broker.SnapshotPending()
	for _, req := range pd.Sequencing {
		if len(req.Candidates) == 0 {
			sim.broker.ResolveSequencing(req.CraneID, Candidate{}, false)
		}
	}
	for _, req := range pd.Loading {
		if len(req.Sources) == 0 {
			sim.broker.ResolveLoading(req.CraneID, nil)
		}
	}
}

// quiescent reports whether both cranes are parked and no further work can
// appear without policy action: either the policy declined the open work, or
// no undelivered plate remains.
func (sim *Simulator) quiescent() bool {
	for _, c := range sim.cranes {
		if !c.parkedIdle || c.moving() {
			return false
		}
	}
	for _, c := range sim.cranes {
		if len(sim.candidatesFor(c)) > 0 {
			return true
		}
	}
	return sim.deliveredPlates() == sim.plateCount
}

func (sim *Simulator) finish(reason string) {
	now := sim.clock.Now()
	for _, c := range sim.cranes {
		c.closeAccounts(now)
	}
	sim.finished = true
	logrus.Infof("[t %10.3f] Simulation ended: %s", now, reason)
}

// Run drives the simulation to the end with a policy answering every decision.
func (sim *Simulator) Run(policy DecisionPolicy) error {
	for !sim.AdvanceUntilNextDecision() {
		if err := sim.applyPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

// applyPolicy resolves all pending decisions, refreshing the snapshot after
// each one since every resolution changes reservations.
func (sim *Simulator) applyPolicy(policy DecisionPolicy) error {
	for {
		pd := sim.PendingDecisions()
		var err error
		switch {
		case len(pd.Prioritizing) > 0:
			req := pd.Prioritizing[0]
			err = sim.ResolvePrioritizing(req.CraneID, policy.Prioritize(req))
		case len(pd.Loading) > 0:
			req := pd.Loading[0]
			err = sim.ResolveLoading(req.CraneID, policy.Load(req))
		case len(pd.Sequencing) > 0:
			req := pd.Sequencing[0]
			err = sim.ResolveSequencing(req.CraneID, policy.Sequence(req))
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("policy %T: %w", policy, err)
		}
	}
}

// deliveredPlates counts plates resting at their destination.
func (sim *Simulator) deliveredPlates() int {
	n := 0
	for _, id := range sim.locationOrder {
		for _, p := range sim.locations[id].Plates() {
			if p.Destination == id {
				n++
			}
		}
	}
	return n
}

// CheckConservation verifies that every plate loaded at construction is in
// exactly one place: on one location stack or in one crane's payload.
func (sim *Simulator) CheckConservation() error {
	seen := make(map[int]string, sim.plateCount)
	visit := func(where string, plates []Plate) error {
		for _, p := range plates {
			if prev, dup := seen[p.ID]; dup {
				return fmt.Errorf("plate %s (id %d) is both at %s and %s", p.Name, p.ID, prev, where)
			}
			seen[p.ID] = where
		}
		return nil
	}
	for _, id := range sim.locationOrder {
		if err := visit(id, sim.locations[id].Plates()); err != nil {
			return err
		}
	}
	for _, c := range sim.cranes {
		if err := visit(c.name, c.payload); err != nil {
			return err
		}
	}
	if len(seen) != sim.plateCount {
		return fmt.Errorf("found %d plates, expected %d", len(seen), sim.plateCount)
	}
	return nil
}
