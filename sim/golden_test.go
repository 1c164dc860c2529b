package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockyard-sim/stockyard-sim/sim/internal/testutil"
)

func goldenRecords(rows []testutil.GoldenPlate) []PlateRecord {
	out := make([]PlateRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, rec(r.Pile, r.Seq, r.Mark, r.Weight, r.To))
	}
	return out
}

func TestSimulator_GoldenScenarios(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Scenarios)

	for _, sc := range dataset.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			// GIVEN the scenario's workload on the test yard
			wl := Workload{
				Storage:   goldenRecords(sc.Storage),
				Reshuffle: goldenRecords(sc.Reshuffle),
				Retrieval: goldenRecords(sc.Retrieval),
			}
			s := newTestSim(t, testYard(), wl)

			// WHEN it runs to completion
			require.NoError(t, s.Run(scriptedPolicy{}))

			// THEN counts and stacks match exactly
			want := sc.Expected
			m := s.Metrics()
			assert.Equal(t, want.PlatesDelivered, m.PlatesDelivered, "plates_delivered")
			assert.Equal(t, want.StorageJobs, m.StorageJobs, "storage_jobs")
			assert.Equal(t, want.ReshuffleJobs, m.ReshuffleJobs, "reshuffle_jobs")
			assert.Equal(t, want.RetrievalJobs, m.RetrievalJobs, "retrieval_jobs")
			for id, names := range want.Stacks {
				loc, ok := s.Location(id)
				require.True(t, ok, id)
				got := plateNames(loc.Plates())
				if len(names) == 0 {
					assert.Empty(t, got, id)
				} else {
					assert.Equal(t, names, got, id)
				}
			}
			require.NoError(t, s.CheckConservation())

			// AND simulated times match within tolerance
			const relTol = 1e-9
			testutil.AssertFloat64Equal(t, "end_time", want.EndTime, m.SimEndedTime, relTol)
			require.Len(t, want.Cranes, NumCranes)
			for i, wc := range want.Cranes {
				gc := m.Cranes[i]
				testutil.AssertFloat64Equal(t, gc.Name+" idle_time", wc.IdleTime, gc.IdleTime, relTol)
				testutil.AssertFloat64Equal(t, gc.Name+" moving_time", wc.MovingTime, gc.MovingTime, relTol)
				testutil.AssertFloat64Equal(t, gc.Name+" avoiding_time", wc.AvoidingTime, gc.AvoidingTime, relTol)
				testutil.AssertFloat64Equal(t, gc.Name+" empty_travel_time", wc.EmptyTravelTime, gc.EmptyTravelTime, relTol)
				assert.Equal(t, wc.PickUps, gc.PickUps, gc.Name+" pick_ups")
				assert.Equal(t, wc.PutDowns, gc.PutDowns, gc.Name+" put_downs")
				assert.Equal(t, wc.Interferences, gc.Interferences, gc.Name+" interferences")
				assert.Equal(t, wc.Detours, gc.Detours, gc.Name+" detours")
			}
		})
	}
}
