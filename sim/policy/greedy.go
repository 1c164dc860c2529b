package policy

import (
	"math"
	"sort"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

// Greedy sends each crane to the nearest candidate, fills the batch from the
// nearest sources, and always lets the crane that detected a conflict yield.
type Greedy struct{}

func (g *Greedy) Sequence(req sim.SequencingRequest) string {
	best := ""
	bestDist := math.Inf(1)
	for _, c := range req.Candidates {
		d := math.Abs(c.Position.X - req.CranePosition.X)
		if d < bestDist {
			best, bestDist = c.LocationID, d
		}
	}
	return best
}

func (g *Greedy) Load(req sim.LoadingRequest) []string {
	sources := append([]sim.SourceInfo(nil), req.Sources...)
	// The job's offset stays first; the rest are visited nearest first.
	rest := sources
	if len(sources) > 0 && sources[0].LocationID == req.Offset {
		rest = sources[1:]
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return math.Abs(rest[i].Position.X-req.CranePosition.X) < math.Abs(rest[j].Position.X-req.CranePosition.X)
	})
	b := newBatchBuilder(req)
	for _, src := range sources {
		b.fillFrom(src, len(src.Plates))
	}
	return b.batch
}

func (g *Greedy) Prioritize(_ sim.PrioritizingRequest) sim.Priority {
	return sim.PriorityLow
}
