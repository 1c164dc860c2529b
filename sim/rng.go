package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. The same key, yard, workload and
// sequence of decisions replay to the same event log.
type SimulationKey int64

// NewSimulationKey wraps a CLI or config seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random stream names.
const (
	// SubsystemWorkload draws the generated plates. It is seeded with the key
	// itself so `--seed N` names the workload.
	SubsystemWorkload = "workload"

	// SubsystemPolicy drives the random reference policy.
	SubsystemPolicy = "policy"
)

// SubsystemOutputPoint names the demand stream of one conveyor. Each conveyor
// gets its own stream, so adding one leaves the others' arrivals unchanged.
func SubsystemOutputPoint(id string) string {
	return fmt.Sprintf("output_%s", id)
}

// PartitionedRNG hands out one *rand.Rand per named stream, all derived from a
// single key. A stream's seed is the key mixed with the FNV-1a hash of its
// name; the workload stream takes the key unmixed. Not safe for concurrent use.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: map[string]*rand.Rand{}}
}

// ForSubsystem returns the stream called name, creating it on first use.
// Later calls return the same generator, continuing where it left off.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	r, ok := p.streams[name]
	if !ok {
		r = rand.New(rand.NewSource(p.seedFor(name)))
		p.streams[name] = r
	}
	return r
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemWorkload {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
