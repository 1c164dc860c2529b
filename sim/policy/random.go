package policy

import (
	"math/rand"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

// Random answers every decision uniformly at random among legal answers. It
// never declines work while candidates exist, and its batches always respect
// the crane limits.
type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Sequence(req sim.SequencingRequest) string {
	if len(req.Candidates) == 0 {
		return ""
	}
	return req.Candidates[r.rng.Intn(len(req.Candidates))].LocationID
}

// Load picks one random source and takes a random number of plates off its top.
func (r *Random) Load(req sim.LoadingRequest) []string {
	order := r.rng.Perm(len(req.Sources))
	for _, i := range order {
		src := req.Sources[i]
		b := newBatchBuilder(req)
		b.fillFrom(src, 1+r.rng.Intn(len(src.Plates)))
		if len(b.batch) > 0 {
			return b.batch
		}
	}
	return nil
}

func (r *Random) Prioritize(_ sim.PrioritizingRequest) sim.Priority {
	if r.rng.Intn(2) == 0 {
		return sim.PriorityHigh
	}
	return sim.PriorityLow
}
