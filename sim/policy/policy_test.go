package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockyard-sim/stockyard-sim/sim"
	"github.com/stockyard-sim/stockyard-sim/sim/workload"
)

func TestNew_ValidNames(t *testing.T) {
	for _, name := range ValidNames() {
		assert.True(t, IsValid(name))
		assert.NotNil(t, New(name, rand.New(rand.NewSource(1))))
	}
	assert.False(t, IsValid("fifo"))
	assert.Panics(t, func() { New("fifo", nil) })
}

func loadingRequest() sim.LoadingRequest {
	return sim.LoadingRequest{
		CraneID:       0,
		Job:           sim.JobReshuffle,
		Offset:        "A10",
		CranePosition: sim.Position{X: 10, Y: 0},
		Sources: []sim.SourceInfo{
			{LocationID: "A10", Position: sim.Position{X: 10}, Plates: []sim.Plate{
				{Name: "P3", Weight: 15, Destination: "A12"},
				{Name: "P2", Weight: 15, Destination: "A12"},
				{Name: "P1", Weight: 15, Destination: "A12"},
			}},
			{LocationID: "A30", Position: sim.Position{X: 30}, Plates: []sim.Plate{
				{Name: "Q1", Weight: 1, Destination: "A31"},
			}},
			{LocationID: "A14", Position: sim.Position{X: 14}, Plates: []sim.Plate{
				{Name: "R2", Weight: 2, Destination: "A40"},
				{Name: "R1", Weight: 2, Destination: "A16"},
			}},
		},
		WeightLimit:     40,
		PlateCountLimit: 5,
		PileCountLimit:  2,
		Reserved:        []string{"A40"},
	}
}

func TestGreedy_Load_RespectsLimits(t *testing.T) {
	// GIVEN a 40t crane at its offset with a nearer and a farther extra source
	req := loadingRequest()

	// WHEN the greedy policy builds a batch
	batch := (&Greedy{}).Load(req)

	// THEN it takes two of the 15t plates, skips A14 whose top plate goes to
	// a reserved pile and tops up from A30
	assert.Equal(t, []string{"A10", "A10", "A30"}, batch)
}

func TestGreedy_Load_NearestExtraSourceFirst(t *testing.T) {
	req := loadingRequest()
	req.Sources[0].Plates = req.Sources[0].Plates[:1]
	req.Reserved = nil

	batch := (&Greedy{}).Load(req)

	assert.Equal(t, []string{"A10", "A14", "A14"}, batch)
	// The request is not mutated.
	assert.Equal(t, "A30", req.Sources[1].LocationID)
}

func TestGreedy_Sequence_Nearest(t *testing.T) {
	g := &Greedy{}
	req := sim.SequencingRequest{
		CranePosition: sim.Position{X: 20},
		Candidates: []sim.Candidate{
			{LocationID: "IN0", Position: sim.Position{X: 0}},
			{LocationID: "A24", Position: sim.Position{X: 24}},
			{LocationID: "A15", Position: sim.Position{X: 15}},
		},
	}
	assert.Equal(t, "A24", g.Sequence(req))
	assert.Equal(t, "", g.Sequence(sim.SequencingRequest{}))
	assert.Equal(t, sim.PriorityLow, g.Prioritize(sim.PrioritizingRequest{}))
}

func TestRandom_AnswersAreLegal(t *testing.T) {
	r := NewRandom(rand.New(rand.NewSource(3)))
	req := loadingRequest()
	for i := 0; i < 50; i++ {
		batch := r.Load(req)
		require.NotEmpty(t, batch)
		assert.LessOrEqual(t, len(batch), req.PlateCountLimit)
		for _, id := range batch {
			assert.Equal(t, batch[0], id, "one source per random batch")
		}
		p := r.Prioritize(sim.PrioritizingRequest{})
		assert.Contains(t, []sim.Priority{sim.PriorityHigh, sim.PriorityLow}, p)
	}
	assert.Equal(t, "", r.Sequence(sim.SequencingRequest{}))
}

// runPolicy plays a generated workload on the default yard to the end.
func runPolicy(t *testing.T, name string, seed int64) *sim.Simulator {
	t.Helper()
	cfg := sim.DefaultYardConfig()
	cfg.Seed = seed
	cfg.Horizon = 1e6
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	wl, err := workload.Generate(cfg, workload.DefaultGeneratorConfig(), rng.ForSubsystem(sim.SubsystemWorkload))
	require.NoError(t, err)
	s, err := sim.NewSimulator(cfg, wl)
	require.NoError(t, err)
	require.NoError(t, s.Run(New(name, rng.ForSubsystem(sim.SubsystemPolicy))))
	return s
}

func TestPolicies_CompleteGeneratedWorkload(t *testing.T) {
	for _, name := range ValidNames() {
		t.Run(name, func(t *testing.T) {
			// GIVEN the default yard and a generated mixed workload
			// WHEN the policy answers every decision
			s := runPolicy(t, name, 42)

			// THEN every plate reaches its destination before the horizon
			m := s.Metrics()
			assert.True(t, s.Finished())
			assert.Less(t, m.SimEndedTime, 1e6)
			assert.Equal(t, m.PlatesTotal, m.PlatesDelivered)
			require.NoError(t, s.CheckConservation())

			// AND each crane's time is fully accounted for
			for _, c := range m.Cranes {
				assert.InDelta(t, m.SimEndedTime, c.IdleTime+c.MovingTime+c.AvoidingTime, 1e-6, c.Name)
				assert.Equal(t, c.PickUps, c.PutDowns, c.Name)
			}
			assert.Equal(t, m.StorageJobs+m.ReshuffleJobs+m.RetrievalJobs,
				m.Cranes[0].JobsCompleted+m.Cranes[1].JobsCompleted)
		})
	}
}

func TestGreedy_RunIsReproducible(t *testing.T) {
	a := runPolicy(t, "greedy", 9).Metrics()
	b := runPolicy(t, "greedy", 9).Metrics()
	assert.Equal(t, a, b)
}
