package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// JobType is the class of work a crane is carrying out.
type JobType string

const (
	JobStorage   JobType = "storage"
	JobReshuffle JobType = "reshuffle"
	JobRetrieval JobType = "retrieval"
)

// jobForKind maps the kind of the chosen location to the job it starts.
func jobForKind(kind LocationKind) JobType {
	switch kind {
	case KindInputPoint:
		return JobStorage
	case KindPile:
		return JobReshuffle
	case KindOutputPoint:
		return JobRetrieval
	}
	invariant("jobForKind", "unknown location kind %q", kind)
	return ""
}

// Priority is the answer to a prioritizing decision.
type Priority string

const (
	PriorityHigh Priority = "high" // proceed to the real target
	PriorityLow  Priority = "low"  // yield: detour to the safety boundary
)

// Candidate is a ready location a crane may be sent to.
type Candidate struct {
	LocationID string
	Kind       LocationKind
	Job        JobType
	Position   Position // bay of the location; row of the crane for points
}

// SequencingRequest asks which location a crane should serve next.
type SequencingRequest struct {
	CraneID       int
	CranePosition Position
	Candidates    []Candidate
}

// SourceInfo describes one location the crane may pick from in a loading pass.
type SourceInfo struct {
	LocationID string
	Position   Position
	Plates     []Plate // movable plates, top first
}

// LoadingRequest asks which locations to visit, in order, in one loading pass.
// One plate is picked per stop; a location may appear more than once.
type LoadingRequest struct {
	CraneID         int
	Job             JobType
	Offset          string
	CranePosition   Position
	Sources         []SourceInfo
	WeightLimit     float64
	PlateCountLimit int
	PileCountLimit  int
	Reserved        []string // locations held by the other crane's job
}

// PrioritizingRequest asks whether a crane that predicted a conflict with the
// other crane proceeds (high) or yields (low).
type PrioritizingRequest struct {
	CraneID      int
	OtherCraneID int
	Time         float64
}

// PendingDecisions is a read-only snapshot of the Broker's three queues,
// each sorted by crane ID.
type PendingDecisions struct {
	Sequencing   []SequencingRequest
	Loading      []LoadingRequest
	Prioritizing []PrioritizingRequest
}

// Empty reports whether no decision is pending.
func (p PendingDecisions) Empty() bool {
	return len(p.Sequencing) == 0 && len(p.Loading) == 0 && len(p.Prioritizing) == 0
}

type sequencingEntry struct {
	req    SequencingRequest
	resume func(choice Candidate, ok bool)
}

type loadingEntry struct {
	req    LoadingRequest
	resume func(batch []string)
}

type prioritizingEntry struct {
	req    PrioritizingRequest
	resume func(p Priority)
}

// readyQueue is an insertion-ordered set of location IDs.
type readyQueue struct {
	ids []string
}

func (q *readyQueue) add(id string) bool {
	if q.contains(id) {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

func (q *readyQueue) remove(id string) {
	for i, v := range q.ids {
		if v == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return
		}
	}
}

func (q *readyQueue) contains(id string) bool {
	for _, v := range q.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (q *readyQueue) list() []string {
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}

// Broker is the single rendezvous point between cranes, locations and the
// external policy. It holds at most one pending request per crane across all
// three decision queues, plus the ready-location queues for each job class.
// Resolving a request removes it before the crane is resumed, so a crane can
// never be resumed twice for one request.
type Broker struct {
	clock        *Clock
	sequencing   map[int]*sequencingEntry
	loading      map[int]*loadingEntry
	prioritizing map[int]*prioritizingEntry

	readyStorage   readyQueue
	readyReshuffle readyQueue
	readyRetrieval readyQueue
}

// NewBroker creates an empty Broker that resumes processes on clock.
func NewBroker(clock *Clock) *Broker {
	return &Broker{
		clock:        clock,
		sequencing:   make(map[int]*sequencingEntry),
		loading:      make(map[int]*loadingEntry),
		prioritizing: make(map[int]*prioritizingEntry),
	}
}

func (b *Broker) checkFree(craneID int) {
	_, s := b.sequencing[craneID]
	_, l := b.loading[craneID]
	_, p := b.prioritizing[craneID]
	if s || l || p {
		invariant("Broker", "crane %d already has a pending decision", craneID)
	}
}

// RequestSequencing registers a crane as awaiting a target location.
func (b *Broker) RequestSequencing(req SequencingRequest, resume func(choice Candidate, ok bool)) {
	b.checkFree(req.CraneID)
	b.sequencing[req.CraneID] = &sequencingEntry{req: req, resume: resume}
	logrus.Debugf("[t %10.3f] crane %d awaits sequencing (%d candidates)", b.clock.Now(), req.CraneID, len(req.Candidates))
}

// RequestLoading registers a crane as awaiting a loading batch. The Broker
// does not enforce the crane limits itself; ResolveLoading callers validate.
func (b *Broker) RequestLoading(req LoadingRequest, resume func(batch []string)) {
	b.checkFree(req.CraneID)
	b.loading[req.CraneID] = &loadingEntry{req: req, resume: resume}
	logrus.Debugf("[t %10.3f] crane %d awaits loading from %s", b.clock.Now(), req.CraneID, req.Offset)
}

// RequestPrioritizing registers a predicted conflict awaiting a yield/proceed decision.
func (b *Broker) RequestPrioritizing(craneID, otherID int, resume func(p Priority)) {
	b.checkFree(craneID)
	b.prioritizing[craneID] = &prioritizingEntry{
		req:    PrioritizingRequest{CraneID: craneID, OtherCraneID: otherID, Time: b.clock.Now()},
		resume: resume,
	}
	logrus.Debugf("[t %10.3f] crane %d awaits priority against crane %d", b.clock.Now(), craneID, otherID)
}

// Sequencing returns the pending sequencing request of a crane, if any.
func (b *Broker) Sequencing(craneID int) (SequencingRequest, bool) {
	e, ok := b.sequencing[craneID]
	if !ok {
		return SequencingRequest{}, false
	}
	return e.req, true
}

// Loading returns the pending loading request of a crane, if any.
func (b *Broker) Loading(craneID int) (LoadingRequest, bool) {
	e, ok := b.loading[craneID]
	if !ok {
		return LoadingRequest{}, false
	}
	return e.req, true
}

// Prioritizing returns the pending prioritizing request of a crane, if any.
func (b *Broker) Prioritizing(craneID int) (PrioritizingRequest, bool) {
	e, ok := b.prioritizing[craneID]
	if !ok {
		return PrioritizingRequest{}, false
	}
	return e.req, true
}

// AwaitingPriority reports whether a crane is suspended on a prioritizing decision.
func (b *Broker) AwaitingPriority(craneID int) bool {
	_, ok := b.prioritizing[craneID]
	return ok
}

func (b *Broker) setSequencingCandidates(craneID int, pos Position, candidates []Candidate) {
	if e, ok := b.sequencing[craneID]; ok {
		e.req.CranePosition = pos
		e.req.Candidates = candidates
	}
}

func (b *Broker) setLoadingRequest(req LoadingRequest) {
	if e, ok := b.loading[req.CraneID]; ok {
		e.req = req
	}
}

// ResolveSequencing removes the crane's sequencing entry and resumes it with
// the choice. ok=false is the "no work" answer.
func (b *Broker) ResolveSequencing(craneID int, choice Candidate, ok bool) {
	e, found := b.sequencing[craneID]
	if !found {
		invariant("ResolveSequencing", "crane %d has no pending sequencing decision", craneID)
	}
	delete(b.sequencing, craneID)
	b.clock.After(0, "sequencing", func() { e.resume(choice, ok) })
}

// ResolveLoading removes the crane's loading entry and resumes it with the batch.
func (b *Broker) ResolveLoading(craneID int, batch []string) {
	e, found := b.loading[craneID]
	if !found {
		invariant("ResolveLoading", "crane %d has no pending loading decision", craneID)
	}
	delete(b.loading, craneID)
	cp := append([]string(nil), batch...)
	b.clock.After(0, "loading", func() { e.resume(cp) })
}

// ResolvePrioritizing removes the crane's prioritizing entry and resumes it.
func (b *Broker) ResolvePrioritizing(craneID int, p Priority) {
	e, found := b.prioritizing[craneID]
	if !found {
		invariant("ResolvePrioritizing", "crane %d has no pending prioritizing decision", craneID)
	}
	delete(b.prioritizing, craneID)
	b.clock.After(0, "prioritizing", func() { e.resume(p) })
}

// HasPending reports whether any decision is pending.
func (b *Broker) HasPending() bool {
	return len(b.sequencing)+len(b.loading)+len(b.prioritizing) > 0
}

// SnapshotPending returns copies of all pending requests, sorted by crane ID.
func (b *Broker) SnapshotPending() PendingDecisions {
	var out PendingDecisions
	for _, id := range sortedKeys(b.sequencing) {
		req := b.sequencing[id].req
		req.Candidates = append([]Candidate(nil), req.Candidates...)
		out.Sequencing = append(out.Sequencing, req)
	}
	for _, id := range sortedKeys(b.loading) {
		req := b.loading[id].req
		req.Sources = append([]SourceInfo(nil), req.Sources...)
		req.Reserved = append([]string(nil), req.Reserved...)
		out.Loading = append(out.Loading, req)
	}
	for _, id := range sortedKeys(b.prioritizing) {
		out.Prioritizing = append(out.Prioritizing, b.prioritizing[id].req)
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// readyQueueFor returns the ready queue a job class registers in.
func (b *Broker) readyQueueFor(job JobType) *readyQueue {
	switch job {
	case JobStorage:
		return &b.readyStorage
	case JobReshuffle:
		return &b.readyReshuffle
	case JobRetrieval:
		return &b.readyRetrieval
	}
	invariant("readyQueueFor", "unknown job type %q", job)
	return nil
}

// MarkReady registers a location in the ready queue of its job class.
// Returns true if it was not registered before.
func (b *Broker) MarkReady(job JobType, locationID string) bool {
	return b.readyQueueFor(job).add(locationID)
}

// ClearReady removes a location from the ready queue of its job class.
func (b *Broker) ClearReady(job JobType, locationID string) {
	b.readyQueueFor(job).remove(locationID)
}

// Ready returns the ready location IDs of a job class in registration order.
func (b *Broker) Ready(job JobType) []string {
	return b.readyQueueFor(job).list()
}
