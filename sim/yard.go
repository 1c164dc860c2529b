package sim

import (
	"fmt"
	"sort"
)

// buildLocations instantiates every configured location in configuration
// order: input points, piles, then output points.
func (sim *Simulator) buildLocations() {
	for _, pc := range sim.cfg.InputPoints {
		ip := NewInputPoint(pc.ID, pc.Bay)
		sim.inputs = append(sim.inputs, ip)
		sim.addLocation(ip)
	}
	for _, pc := range sim.cfg.Piles {
		p := NewPile(pc.ID, pc.Bay, pc.Row, pc.Kind)
		sim.piles = append(sim.piles, p)
		sim.addLocation(p)
	}
	for _, pc := range sim.cfg.OutputPoints {
		op := NewOutputPoint(pc.ID, pc.Bay, pc.Rate)
		sim.outputs = append(sim.outputs, op)
		sim.addLocation(op)
	}
}

func (sim *Simulator) addLocation(loc Location) {
	sim.locations[loc.ID()] = loc
	sim.locationOrder = append(sim.locationOrder, loc.ID())
}

// loadWorkload places every plate of the workload at its origin. Within a
// pile, plates are stacked by ascending sequence number, so the highest
// sequence number ends on top.
func (sim *Simulator) loadWorkload(wl Workload) error {
	type entry struct {
		rec   PlateRecord
		class JobType
	}
	var all []entry
	for _, r := range wl.Storage {
		all = append(all, entry{r, JobStorage})
	}
	for _, r := range wl.Reshuffle {
		all = append(all, entry{r, JobReshuffle})
	}
	for _, r := range wl.Retrieval {
		all = append(all, entry{r, JobRetrieval})
	}

	reshuffleOrigins := map[string]bool{}
	for _, e := range all {
		if err := sim.checkRecord(e.rec, e.class); err != nil {
			return err
		}
		if e.class == JobReshuffle {
			reshuffleOrigins[e.rec.PileID] = true
		}
	}
	for _, e := range all {
		if e.class != JobRetrieval && reshuffleOrigins[e.rec.DestinationPileID] {
			return fmt.Errorf("plate %s: destination %s is also a reshuffle origin", e.rec.MarkNo, e.rec.DestinationPileID)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].rec.SequenceNo < all[j].rec.SequenceNo })
	for _, e := range all {
		sim.nextPlateID++
		p := Plate{
			ID:          sim.nextPlateID,
			Name:        e.rec.MarkNo,
			Weight:      e.rec.Weight,
			Origin:      e.rec.PileID,
			Destination: e.rec.DestinationPileID,
		}
		sim.locations[e.rec.PileID].PutPlate(p)
		sim.plateCount++
	}
	return nil
}

// checkRecord validates the origin and destination of one workload row
// against its job class.
func (sim *Simulator) checkRecord(r PlateRecord, class JobType) error {
	origin, ok := sim.locations[r.PileID]
	if !ok {
		return fmt.Errorf("%s plate %s: unknown origin %q", class, r.MarkNo, r.PileID)
	}
	dest, ok := sim.locations[r.DestinationPileID]
	if !ok {
		return fmt.Errorf("%s plate %s: unknown destination %q", class, r.MarkNo, r.DestinationPileID)
	}
	if r.Weight <= 0 {
		return fmt.Errorf("%s plate %s: weight must be positive, got %g", class, r.MarkNo, r.Weight)
	}
	if r.Weight > sim.maxLiftable() {
		return fmt.Errorf("%s plate %s: weight %g exceeds every crane's weight limit", class, r.MarkNo, r.Weight)
	}
	if r.PileID == r.DestinationPileID {
		return fmt.Errorf("%s plate %s: origin and destination are both %s", class, r.MarkNo, r.PileID)
	}
	if !sim.cfg.Deliverable(bayOf(origin), bayOf(dest)) {
		return fmt.Errorf("%s plate %s: no crane reaches both %s and %s", class, r.MarkNo, r.PileID, r.DestinationPileID)
	}
	switch class {
	case JobStorage:
		if origin.Kind() != KindInputPoint {
			return fmt.Errorf("storage plate %s: origin %s is not an input point", r.MarkNo, r.PileID)
		}
		if !isPileOfKind(dest, PileStorage) {
			return fmt.Errorf("storage plate %s: destination %s is not a storage pile", r.MarkNo, r.DestinationPileID)
		}
	case JobReshuffle:
		if !isPileOfKind(origin, PileStorage) {
			return fmt.Errorf("reshuffle plate %s: origin %s is not a storage pile", r.MarkNo, r.PileID)
		}
		if !isPileOfKind(dest, PileStorage) {
			return fmt.Errorf("reshuffle plate %s: destination %s is not a storage pile", r.MarkNo, r.DestinationPileID)
		}
	case JobRetrieval:
		if !isPileOfKind(origin, PileRetrieval) {
			return fmt.Errorf("retrieval plate %s: origin %s is not a retrieval pile", r.MarkNo, r.PileID)
		}
		if dest.Kind() != KindOutputPoint {
			return fmt.Errorf("retrieval plate %s: destination %s is not an output point", r.MarkNo, r.DestinationPileID)
		}
	}
	return nil
}

// maxLiftable is the heaviest plate both cranes can lift.
func (sim *Simulator) maxLiftable() float64 {
	m := sim.cfg.Cranes[0].WeightLimit
	for _, cc := range sim.cfg.Cranes[1:] {
		m = min(m, cc.WeightLimit)
	}
	return m
}

func isPileOfKind(loc Location, kind PileKind) bool {
	p, ok := loc.(*Pile)
	return ok && p.PileKind() == kind
}

func bayOf(loc Location) float64 { return loc.TargetFrom(Position{}).X }

// reachable reports whether the crane can service loc while keeping the safety
// margin to the other crane.
func (sim *Simulator) reachable(craneID int, loc Location) bool {
	return sim.cfg.Reach(craneID).Contains(bayOf(loc))
}

// clampPosition keeps a coordinate inside the yard.
func (sim *Simulator) clampPosition(p Position) Position {
	return Position{X: sim.cfg.BayRange.Clamp(p.X), Y: sim.cfg.RowRange.Clamp(p.Y)}
}

// locationAt names the location a crane at pos is servicing, or "" between
// locations. Piles match exactly; points match on the bay.
func (sim *Simulator) locationAt(pos Position) string {
	for _, p := range sim.piles {
		if p.pos == pos {
			return p.id
		}
	}
	for _, ip := range sim.inputs {
		if ip.bay == pos.X {
			return ip.id
		}
	}
	for _, op := range sim.outputs {
		if op.bay == pos.X {
			return op.id
		}
	}
	return ""
}

// claim reserves a location for a crane's job. A claimed location is neither
// offered to the other crane nor accepted in its batches.
func (sim *Simulator) claim(craneID int, loc Location) {
	if owner, ok := sim.claims[loc.ID()]; ok && owner != craneID {
		invariant("claim", "%s is reserved by crane %d, crane %d cannot claim it", loc.ID(), owner, craneID)
	}
	sim.claims[loc.ID()] = craneID
	sim.refreshReadiness(loc)
}

// releaseClaims drops the crane's reservations except those keep retains.
// Releasing may unblock work whose readiness did not change, so parked cranes
// are re-checked afterwards.
func (sim *Simulator) releaseClaims(craneID int, keep func(id string) bool) {
	released := false
	for _, id := range sim.locationOrder {
		owner, ok := sim.claims[id]
		if !ok || owner != craneID || (keep != nil && keep(id)) {
			continue
		}
		delete(sim.claims, id)
		sim.refreshReadiness(sim.locations[id])
		released = true
	}
	if released {
		sim.notifyWork()
	}
}

// claimedByOther reports whether a location is reserved by a crane other than craneID.
func (sim *Simulator) claimedByOther(craneID int, id string) bool {
	owner, ok := sim.claims[id]
	return ok && owner != craneID
}

// releaseSources keeps only the reservations the unloading pass needs.
func (sim *Simulator) releaseSources(c *Crane) {
	dests := map[string]bool{}
	for _, p := range c.payload {
		dests[p.Destination] = true
	}
	sim.releaseClaims(c.id, func(id string) bool { return dests[id] })
}

func (sim *Simulator) jobDone(c *Crane) {
	switch c.job {
	case JobStorage:
		sim.metrics.StorageJobs++
	case JobReshuffle:
		sim.metrics.ReshuffleJobs++
	case JobRetrieval:
		sim.metrics.RetrievalJobs++
	}
	sim.releaseClaims(c.id, nil)
}

// abandonJob undoes a job whose loading pass never started. Retrieval demand
// consumed at sequencing is restored.
func (sim *Simulator) abandonJob(c *Crane) {
	if op, ok := c.offset.(*OutputPoint); ok {
		op.demand = true
	}
	sim.releaseClaims(c.id, nil)
}

// refreshReadiness keeps the broker's ready queues in sync with a location's
// stack, demand and reservation.
func (sim *Simulator) refreshReadiness(loc Location) {
	_, claimed := sim.claims[loc.ID()]
	var job JobType
	var ready bool
	switch l := loc.(type) {
	case *InputPoint:
		job, ready = JobStorage, l.HasWork()
	case *Pile:
		job, ready = JobReshuffle, l.HasWork()
		if l.kind == PileRetrieval {
			job = JobRetrieval
		}
	case *OutputPoint:
		job, ready = JobRetrieval, l.demand
	default:
		invariant("refreshReadiness", "unknown location type %T", loc)
	}
	if !ready || claimed {
		sim.broker.ClearReady(job, loc.ID())
		return
	}
	if sim.broker.MarkReady(job, loc.ID()) {
		sim.notifyWork()
	}
}

// hasSupply reports whether an unreserved retrieval pile within the crane's
// reach has a plate for op on top.
func (sim *Simulator) hasSupply(c *Crane, op *OutputPoint) bool {
	for _, id := range sim.broker.Ready(JobRetrieval) {
		p, ok := sim.locations[id].(*Pile)
		if !ok || !sim.reachable(c.id, p) {
			continue
		}
		if top, ok := p.Top(); ok && top.Destination == op.id {
			return true
		}
	}
	return false
}

// candidatesFor lists the locations a crane may be sent to right now.
func (sim *Simulator) candidatesFor(c *Crane) []Candidate {
	var out []Candidate
	add := func(loc Location) {
		out = append(out, Candidate{
			LocationID: loc.ID(),
			Kind:       loc.Kind(),
			Job:        jobForKind(loc.Kind()),
			Position:   loc.TargetFrom(c.pos),
		})
	}
	for _, id := range sim.broker.Ready(JobStorage) {
		if sim.canTakeTop(c, sim.locations[id]) {
			add(sim.locations[id])
		}
	}
	for _, id := range sim.broker.Ready(JobReshuffle) {
		if sim.canTakeTop(c, sim.locations[id]) {
			add(sim.locations[id])
		}
	}
	for _, id := range sim.broker.Ready(JobRetrieval) {
		if op, ok := sim.locations[id].(*OutputPoint); ok && sim.reachable(c.id, op) && sim.hasSupply(c, op) {
			add(op)
		}
	}
	return out
}

// canTakeTop reports whether the crane can carry the top plate of loc: both
// ends of the trip are within its reach and the destination is not held by
// the other crane.
func (sim *Simulator) canTakeTop(c *Crane, loc Location) bool {
	top, ok := loc.Top()
	if !ok || !sim.reachable(c.id, loc) {
		return false
	}
	dest := sim.locations[top.Destination]
	return sim.reachable(c.id, dest) && !sim.claimedByOther(c.id, top.Destination)
}

// sourcesFor lists the locations the crane may pick from in its loading pass,
// with the plates movable under its job, top first. The job's own offset comes
// first.
func (sim *Simulator) sourcesFor(c *Crane) []SourceInfo {
	var out []SourceInfo
	add := func(loc Location, movable func(Plate) bool) {
		if sim.claimedByOther(c.id, loc.ID()) || !sim.reachable(c.id, loc) {
			return
		}
		plates := loc.Plates()
		var top []Plate
		for i := len(plates) - 1; i >= 0 && len(top) < c.cfg.PlateCountLimit; i-- {
			p := plates[i]
			if !movable(p) || sim.claimedByOther(c.id, p.Destination) || p.Weight > c.cfg.WeightLimit ||
				!sim.reachable(c.id, sim.locations[p.Destination]) {
				break
			}
			top = append(top, plates[i])
		}
		if len(top) == 0 {
			return
		}
		out = append(out, SourceInfo{LocationID: loc.ID(), Position: loc.TargetFrom(c.pos), Plates: top})
	}

	var pool []Location
	var movable func(loc Location) func(Plate) bool
	switch c.job {
	case JobStorage:
		for _, ip := range sim.inputs {
			pool = append(pool, ip)
		}
		movable = func(Location) func(Plate) bool { return func(Plate) bool { return true } }
	case JobReshuffle:
		for _, p := range sim.piles {
			if p.kind == PileStorage {
				pool = append(pool, p)
			}
		}
		movable = func(loc Location) func(Plate) bool {
			return func(p Plate) bool { return p.Destination != loc.ID() }
		}
	case JobRetrieval:
		for _, p := range sim.piles {
			if p.kind == PileRetrieval {
				pool = append(pool, p)
			}
		}
		target := c.offset.ID()
		movable = func(Location) func(Plate) bool {
			return func(p Plate) bool { return p.Destination == target }
		}
	default:
		invariant("sourcesFor", "crane %d has no job", c.id)
	}

	// A storage or reshuffle offset is itself the first source.
	if c.job != JobRetrieval {
		add(c.offset, movable(c.offset))
	}
	for _, loc := range pool {
		if loc == c.offset {
			continue
		}
		add(loc, movable(loc))
	}
	return out
}

// loadingRequestFor builds the loading request for the crane's current job.
func (sim *Simulator) loadingRequestFor(c *Crane) LoadingRequest {
	req := LoadingRequest{
		CraneID:         c.id,
		Job:             c.job,
		Offset:          c.offset.ID(),
		CranePosition:   c.pos,
		Sources:         sim.sourcesFor(c),
		WeightLimit:     c.cfg.WeightLimit,
		PlateCountLimit: c.cfg.PlateCountLimit,
		PileCountLimit:  c.cfg.PileCountLimit,
	}
	for _, id := range sim.locationOrder {
		if sim.claimedByOther(c.id, id) {
			req.Reserved = append(req.Reserved, id)
		}
	}
	return req
}

// validateBatch checks a loading batch against the crane's current sources
// and limits without touching any stack.
func (sim *Simulator) validateBatch(c *Crane, req LoadingRequest, batch []string) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: crane %d: empty batch", ErrInvalidBatch, c.id)
	}
	if len(batch) > req.PlateCountLimit {
		return &BatchLimitError{CraneID: c.id, Limit: "plate_count", Value: float64(len(batch)), Max: float64(req.PlateCountLimit)}
	}
	sources := make(map[string]SourceInfo, len(req.Sources))
	for _, s := range req.Sources {
		sources[s.LocationID] = s
	}
	taken := map[string]int{}
	weight := 0.0
	for _, id := range batch {
		src, ok := sources[id]
		if !ok {
			return fmt.Errorf("%w: crane %d: %s is not a source for this %s job", ErrInvalidBatch, c.id, id, req.Job)
		}
		k := taken[id]
		if k >= len(src.Plates) {
			return fmt.Errorf("%w: crane %d: %s has only %d movable plates", ErrInvalidBatch, c.id, id, len(src.Plates))
		}
		p := src.Plates[k]
		if sim.claimedByOther(c.id, p.Destination) {
			return fmt.Errorf("%w: crane %d: destination %s of %s is reserved", ErrInvalidBatch, c.id, p.Destination, p.Name)
		}
		taken[id] = k + 1
		weight += p.Weight
	}
	if len(taken) > req.PileCountLimit {
		return &BatchLimitError{CraneID: c.id, Limit: "pile_count", Value: float64(len(taken)), Max: float64(req.PileCountLimit)}
	}
	if weight > req.WeightLimit+weightTolerance {
		return &BatchLimitError{CraneID: c.id, Limit: "weight", Value: weight, Max: req.WeightLimit}
	}
	return nil
}

// weightTolerance absorbs float rounding when summing plate weights.
const weightTolerance = 1e-9

// batchDestinations returns the destination of every plate the batch would pick.
func batchDestinations(req LoadingRequest, batch []string) []string {
	sources := make(map[string]SourceInfo, len(req.Sources))
	for _, s := range req.Sources {
		sources[s.LocationID] = s
	}
	taken := map[string]int{}
	var out []string
	for _, id := range batch {
		p := sources[id].Plates[taken[id]]
		taken[id]++
		out = append(out, p.Destination)
	}
	return out
}
