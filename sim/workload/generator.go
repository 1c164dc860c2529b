package workload

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

// Plate weights are drawn uniformly from this range, in tons.
const (
	MinPlateWeight = 0.141
	MaxPlateWeight = 19.294
)

// GeneratorConfig sizes a synthetic workload. Plate counts are nominal: each
// pile or input point receives a count drawn uniformly within +/-10% of them.
type GeneratorConfig struct {
	StoragePlates        int `mapstructure:"storage_plates" yaml:"storage_plates"`                 // per input point
	StorageToPiles       int `mapstructure:"storage_to_piles" yaml:"storage_to_piles"`             // destination piles for storage
	ReshuffleFromPiles   int `mapstructure:"reshuffle_from_piles" yaml:"reshuffle_from_piles"`     // origin piles for reshuffle
	ReshuffleToPiles     int `mapstructure:"reshuffle_to_piles" yaml:"reshuffle_to_piles"`         // destination piles for reshuffle
	ReshufflePlates      int `mapstructure:"reshuffle_plates" yaml:"reshuffle_plates"`             // per origin pile
	RetrievalPilesPerOut int `mapstructure:"retrieval_piles_per_out" yaml:"retrieval_piles_per_out"` // retrieval piles per output point
	RetrievalPlates      int `mapstructure:"retrieval_plates" yaml:"retrieval_plates"`             // per retrieval pile
}

// DefaultGeneratorConfig is a small mixed workload for the default yard.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		StoragePlates:        20,
		StorageToPiles:       5,
		ReshuffleFromPiles:   3,
		ReshuffleToPiles:     5,
		ReshufflePlates:      10,
		RetrievalPilesPerOut: 1,
		RetrievalPlates:      5,
	}
}

func (g GeneratorConfig) validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"storage_plates", g.StoragePlates},
		{"storage_to_piles", g.StorageToPiles},
		{"reshuffle_from_piles", g.ReshuffleFromPiles},
		{"reshuffle_to_piles", g.ReshuffleToPiles},
		{"reshuffle_plates", g.ReshufflePlates},
		{"retrieval_piles_per_out", g.RetrievalPilesPerOut},
		{"retrieval_plates", g.RetrievalPlates},
	}
	for _, f := range fields {
		if f.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", f.name, f.v)
		}
	}
	if g.StoragePlates > 0 && g.StorageToPiles == 0 {
		return fmt.Errorf("storage_to_piles must be positive when storage_plates is set")
	}
	if g.ReshufflePlates > 0 && g.ReshuffleFromPiles > 0 && g.ReshuffleToPiles == 0 {
		return fmt.Errorf("reshuffle_to_piles must be positive when reshuffle piles are set")
	}
	return nil
}

// Generate samples a workload for the yard. Reshuffle origins are disjoint
// from every destination pile, each retrieval pile feeds exactly one output
// point, and every plate goes between locations a single crane can reach.
func Generate(yard sim.YardConfig, g GeneratorConfig, rng *rand.Rand) (sim.Workload, error) {
	if err := g.validate(); err != nil {
		return sim.Workload{}, fmt.Errorf("generator config: %w", err)
	}
	bays := map[string]float64{}
	var storagePiles, retrievalPiles []string
	for _, p := range yard.Piles {
		bays[p.ID] = p.Bay
		switch p.Kind {
		case sim.PileStorage:
			storagePiles = append(storagePiles, p.ID)
		case sim.PileRetrieval:
			retrievalPiles = append(retrievalPiles, p.ID)
		}
	}
	for _, ip := range yard.InputPoints {
		bays[ip.ID] = ip.Bay
	}
	for _, op := range yard.OutputPoints {
		bays[op.ID] = op.Bay
	}
	// servedFrom keeps the ids one crane can carry a plate to from every origin.
	servedFrom := func(ids []string, origins ...string) []string {
		var out []string
		for _, id := range ids {
			ok := true
			for _, o := range origins {
				ok = ok && yard.Deliverable(bays[o], bays[id])
			}
			if ok {
				out = append(out, id)
			}
		}
		return out
	}

	var wl sim.Workload

	// Reshuffle origins first; destinations come from what is left.
	nFrom := 0
	if g.ReshufflePlates > 0 {
		nFrom = g.ReshuffleFromPiles
	}
	origins, rest, err := sample(rng, storagePiles, nFrom)
	if err != nil {
		return sim.Workload{}, fmt.Errorf("reshuffle origins: %w", err)
	}
	if len(origins) > 0 {
		toPiles, _, err := sample(rng, rest, g.ReshuffleToPiles)
		if err != nil {
			return sim.Workload{}, fmt.Errorf("reshuffle destinations: %w", err)
		}
		for _, pile := range origins {
			dests := servedFrom(toPiles, pile)
			if len(dests) == 0 {
				dests = servedFrom(rest, pile)
			}
			if len(dests) == 0 {
				return sim.Workload{}, fmt.Errorf("reshuffle destinations: no pile reachable from %s", pile)
			}
			wl.Reshuffle = append(wl.Reshuffle, fillPile(rng, "RS", pile, g.ReshufflePlates, dests)...)
		}
	}

	if g.StoragePlates > 0 {
		var inputs []string
		for _, ip := range yard.InputPoints {
			inputs = append(inputs, ip.ID)
		}
		toPiles, _, err := sample(rng, servedFrom(rest, inputs...), g.StorageToPiles)
		if err != nil {
			return sim.Workload{}, fmt.Errorf("storage destinations: %w", err)
		}
		for _, ip := range inputs {
			wl.Storage = append(wl.Storage, fillPile(rng, "ST", ip, g.StoragePlates, toPiles)...)
		}
	}

	if g.RetrievalPlates > 0 && g.RetrievalPilesPerOut > 0 {
		taken := map[string]bool{}
		for _, op := range yard.OutputPoints {
			var free []string
			for _, id := range servedFrom(retrievalPiles, op.ID) {
				if !taken[id] {
					free = append(free, id)
				}
			}
			picked, _, err := sample(rng, free, g.RetrievalPilesPerOut)
			if err != nil {
				return sim.Workload{}, fmt.Errorf("retrieval piles for %s: %w", op.ID, err)
			}
			for _, pile := range picked {
				taken[pile] = true
				wl.Retrieval = append(wl.Retrieval, fillPile(rng, "RT", pile, g.RetrievalPlates, []string{op.ID})...)
			}
		}
	}

	logrus.Infof("Generated workload: %d storage, %d reshuffle, %d retrieval plates",
		len(wl.Storage), len(wl.Reshuffle), len(wl.Retrieval))
	return wl, nil
}

// fillPile creates a nominal-n stack of plates on pile, each bound for a
// random entry of dests. Sequence numbers start at 1 at the bottom.
func fillPile(rng *rand.Rand, prefix, pile string, n int, dests []string) []sim.PlateRecord {
	lo, hi := int(0.9*float64(n)), int(1.1*float64(n))
	count := lo + rng.Intn(hi-lo+1)
	recs := make([]sim.PlateRecord, 0, count)
	for seq := 1; seq <= count; seq++ {
		recs = append(recs, sim.PlateRecord{
			PileID:            pile,
			SequenceNo:        seq,
			MarkNo:            fmt.Sprintf("SP-%s-%s-%03d", prefix, pile, seq),
			Weight:            MinPlateWeight + rng.Float64()*(MaxPlateWeight-MinPlateWeight),
			DestinationPileID: dests[rng.Intn(len(dests))],
		})
	}
	return recs
}

// sample draws n distinct items and returns them with the remainder, both in
// their original relative order.
func sample(rng *rand.Rand, items []string, n int) (picked, rest []string, err error) {
	if n > len(items) {
		return nil, nil, fmt.Errorf("need %d piles, only %d available", n, len(items))
	}
	chosen := make(map[int]bool, n)
	for _, i := range rng.Perm(len(items))[:n] {
		chosen[i] = true
	}
	for i, id := range items {
		if chosen[i] {
			picked = append(picked, id)
		} else {
			rest = append(rest, id)
		}
	}
	return picked, rest, nil
}
