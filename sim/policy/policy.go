// Package policy provides reference decision policies for the stockyard
// simulator: a deterministic greedy heuristic and a seeded random baseline.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

var validPolicies = []string{"greedy", "random"}

// ValidNames returns the accepted policy names.
func ValidNames() []string {
	return append([]string(nil), validPolicies...)
}

// IsValid reports whether name is an accepted policy name.
func IsValid(name string) bool {
	for _, n := range validPolicies {
		if n == name {
			return true
		}
	}
	return false
}

// New creates a decision policy by name. rng is used by "random" only.
// Panics on an unknown name; callers validate with IsValid first.
func New(name string, rng *rand.Rand) sim.DecisionPolicy {
	switch name {
	case "greedy":
		return &Greedy{}
	case "random":
		return NewRandom(rng)
	default:
		panic(fmt.Sprintf("unknown policy %q; valid policies: %v", name, validPolicies))
	}
}

// batchBuilder accumulates a loading batch within the crane limits.
type batchBuilder struct {
	req      sim.LoadingRequest
	reserved map[string]bool
	batch    []string
	piles    map[string]bool
	weight   float64
}

func newBatchBuilder(req sim.LoadingRequest) *batchBuilder {
	b := &batchBuilder{req: req, reserved: map[string]bool{}, piles: map[string]bool{}}
	for _, id := range req.Reserved {
		b.reserved[id] = true
	}
	return b
}

// tryAdd appends one pick of p from source if the batch stays within limits.
func (b *batchBuilder) tryAdd(source string, p sim.Plate) bool {
	if len(b.batch) >= b.req.PlateCountLimit {
		return false
	}
	if !b.piles[source] && len(b.piles) >= b.req.PileCountLimit {
		return false
	}
	if b.weight+p.Weight > b.req.WeightLimit || b.reserved[p.Destination] {
		return false
	}
	b.batch = append(b.batch, source)
	b.piles[source] = true
	b.weight += p.Weight
	return true
}

// fillFrom takes plates from the top of src until one does not fit.
func (b *batchBuilder) fillFrom(src sim.SourceInfo, maxPlates int) {
	for i, p := range src.Plates {
		if i >= maxPlates || !b.tryAdd(src.LocationID, p) {
			return
		}
	}
}
