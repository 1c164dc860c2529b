package sim

import (
	"math"
	"math/rand"
)

// ArrivalSampler generates inter-arrival times for an output point's demand.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in simulated time units.
	// Always returns a value >= 1.
	SampleIAT(rng *rand.Rand) float64
}

// GeometricSampler draws the number of Bernoulli(p) trials up to and including
// the first success, so the mean inter-arrival time is 1/p.
type GeometricSampler struct {
	p float64
}

// NewGeometricSampler creates a sampler with success probability p. Values of
// p outside (0, 1] are rejected by YardConfig.Validate before reaching here.
func NewGeometricSampler(p float64) *GeometricSampler {
	return &GeometricSampler{p: p}
}

func (s *GeometricSampler) SampleIAT(rng *rand.Rand) float64 {
	if s.p >= 1 {
		return 1
	}
	// Inverse CDF: ceil(ln(U) / ln(1-p)) with U in (0, 1].
	u := 1 - rng.Float64()
	k := math.Ceil(math.Log(u) / math.Log1p(-s.p))
	if k < 1 {
		return 1
	}
	return k
}
