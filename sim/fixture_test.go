package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-sim/stockyard-sim/sim/trace"
)

// testYard is a one-row strip of storage piles with unit x-velocity, so leg
// durations equal bay distances.
func testYard() YardConfig {
	cfg := YardConfig{
		RowRange:    Range{Min: 0, Max: 1},
		BayRange:    Range{Min: 0, Max: 43},
		InputPoints: []PointConfig{{ID: "IN0", Bay: 0}},
		Cranes: []CraneConfig{
			{Name: "Crane-0", VelocityX: 1, VelocityY: 0.5, InitialBay: 0, InitialRow: 0, WeightLimit: 40, PlateCountLimit: 5, PileCountLimit: 2},
			{Name: "Crane-1", VelocityX: 1, VelocityY: 0.5, InitialBay: 43, InitialRow: 0, WeightLimit: 40, PlateCountLimit: 5, PileCountLimit: 2},
		},
		SafetyMargin: 5,
		Seed:         7,
		RecordEvents: true,
	}
	for _, bay := range []int{5, 10, 12, 20, 22, 30, 40} {
		cfg.Piles = append(cfg.Piles, PileConfig{ID: fmt.Sprintf("A%02d", bay), Bay: float64(bay), Row: 0, Kind: PileStorage})
	}
	cfg.Piles = append(cfg.Piles, PileConfig{ID: "R24", Bay: 24, Row: 1, Kind: PileRetrieval})
	return cfg
}

func rec(pile string, seq int, mark string, weight float64, dest string) PlateRecord {
	return PlateRecord{PileID: pile, SequenceNo: seq, MarkNo: mark, Weight: weight, DestinationPileID: dest}
}

func newTestSim(t *testing.T, cfg YardConfig, wl Workload) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, wl)
	require.NoError(t, err)
	return s
}

// advance runs to the next decision and fails the test if the run ended.
func advance(t *testing.T, s *Simulator) PendingDecisions {
	t.Helper()
	require.False(t, s.AdvanceUntilNextDecision(), "simulation ended early at t=%.1f", s.Now())
	return s.PendingDecisions()
}

// recordsOf filters the event log by kind and crane name ("" matches any crane).
func recordsOf(s *Simulator, kind trace.EventKind, crane string) []trace.Record {
	var out []trace.Record
	for _, r := range s.Events().Records() {
		if r.Kind == kind && (crane == "" || r.Crane == crane) {
			out = append(out, r)
		}
	}
	return out
}

func plateNames(plates []Plate) []string {
	out := make([]string, 0, len(plates))
	for _, p := range plates {
		out = append(out, p.Name)
	}
	return out
}

// requireInvariant asserts that fn panics with an *InvariantError.
func requireInvariant(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected an invariant panic")
		_, ok := r.(*InvariantError)
		require.True(t, ok, "panic value %v is %T, want *InvariantError", r, r)
	}()
	fn()
}
