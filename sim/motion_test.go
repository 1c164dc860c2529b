package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTravelTime_LimitingAxis(t *testing.T) {
	tests := []struct {
		name     string
		from, to Position
		want     float64
	}{
		{"x only", Position{0, 0}, Position{10, 0}, 20},
		{"y only", Position{5, 0}, Position{5, 1}, 4},
		{"x dominates", Position{0, 0}, Position{10, 1}, 20},
		{"y dominates", Position{0, 0}, Position{1, 1}, 4},
		{"no move", Position{3, 1}, Position{3, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, travelTime(tt.from, tt.to, 0.5, 0.25))
		})
	}
}

func TestIntegrate_AxesStopAtTarget(t *testing.T) {
	bays, rows := Range{Min: 0, Max: 43}, Range{Min: 0, Max: 1}
	// After 4 units the row axis has arrived while the bay axis is still moving.
	got := integrate(Position{0, 0}, Position{10, 1}, 0.5, 0.25, 4, bays, rows)
	assert.Equal(t, Position{X: 2, Y: 1}, got)
	// Far past the leg duration both axes rest on the target.
	got = integrate(Position{10, 1}, Position{0, 0}, 0.5, 0.25, 100, bays, rows)
	assert.Equal(t, Position{X: 0, Y: 0}, got)
}

// twoCranes builds a stockyard with both cranes idle at the given bays.
func twoCranes(t *testing.T, x0, x1 float64) *Simulator {
	cfg := testYard()
	cfg.Cranes[0].InitialBay = x0
	cfg.Cranes[1].InitialBay = x1
	return newTestSim(t, cfg, Workload{})
}

func TestTracksConflict(t *testing.T) {
	tests := []struct {
		name        string
		left, right xTrack
		want        bool
	}{
		{"both at rest, apart", xTrack{10, 10, 1}, xTrack{20, 20, 1}, false},
		{"both at rest, exactly the margin", xTrack{10, 10, 1}, xTrack{15, 15, 1}, false},
		{"head-on through each other", xTrack{0, 30, 1}, xTrack{30, 0, 1}, true},
		{"following at the margin", xTrack{16, 20, 1}, xTrack{22, 40, 1}, false},
		{"catching up with a slower crane", xTrack{10, 30, 2}, xTrack{20, 40, 1}, true},
		{"arriving inside the margin of a resting crane", xTrack{0, 27, 1}, xTrack{30, 30, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tracksConflict(tt.left, tt.right, 5))
		})
	}
}

func TestPredictConflict(t *testing.T) {
	t.Run("moving opponent inside the margin", func(t *testing.T) {
		// GIVEN crane 1 just left bay 43 for bay 22 and crane 0 wants bay 20
		s := twoCranes(t, 0, 43)
		c0, c1 := s.cranes[0], s.cranes[1]
		c1.status = StatusLoading
		c1.legFrom, c1.legTo = Position{43, 0}, Position{22, 0}
		c1.leg = s.clock.Timeout(21, func(bool) {})
		c0.status = StatusLoading
		c0.targetPos = Position{20, 0}

		// WHEN crane 0 checks its path
		// THEN at t=20 crane 0 is at 20 and crane 1 at 23: within 5 bays
		assert.True(t, predictConflict(c0, c1, 0, 5))
		// AND the detour stops one bay beyond the margin short of bay 22
		c0.hasTarget = true
		assert.Equal(t, 16.0, c0.detourX(c1, 0, 5, s.cfg.BayRange))
		// AND crane 0 may approach to the margin of crane 1's destination
		assert.Equal(t, 17.0, c0.boundaryX(c1, 0, 5))
	})

	t.Run("busy opponent between legs blocks the whole sweep", func(t *testing.T) {
		// GIVEN crane 1 loading at bay 30 with no leg in flight
		s := twoCranes(t, 10, 30)
		c0, c1 := s.cranes[0], s.cranes[1]
		c1.status = StatusLoading
		c0.status = StatusLoading

		// WHEN crane 0 wants to drive past it to bay 36
		c0.targetPos = Position{36, 0}

		// THEN the conflict is found even though the leg starts 20 bays away
		assert.True(t, predictConflict(c0, c1, 0, 5))
		c0.targetPos = Position{26, 0}
		assert.True(t, predictConflict(c0, c1, 0, 5))
		c0.targetPos = Position{25, 0}
		assert.False(t, predictConflict(c0, c1, 0, 5), "stopping exactly at the margin")
	})

	t.Run("parked opponent still blocks", func(t *testing.T) {
		s := twoCranes(t, 10, 30)
		c0, c1 := s.cranes[0], s.cranes[1]
		c1.parkedIdle = true
		c0.status = StatusLoading
		c0.targetPos = Position{28, 0}
		assert.True(t, predictConflict(c0, c1, 0, 5))
		// It is pushed one bay beyond the margin past the target.
		assert.Equal(t, 34.0, c1.clearanceX(28, 5, s.cfg.BayRange))
		assert.False(t, c1.clearOf(34))
		assert.Equal(t, 43.0, c1.clearanceX(40, 5, s.cfg.BayRange), "clamped to the rail")
	})

	t.Run("crane 1 mirrors the rule", func(t *testing.T) {
		s := twoCranes(t, 10, 30)
		c0, c1 := s.cranes[0], s.cranes[1]
		c0.status = StatusLoading
		c1.status = StatusLoading
		c1.targetPos = Position{15, 0}
		c1.hasTarget = true
		assert.False(t, predictConflict(c1, c0, 0, 5))
		c1.targetPos = Position{14, 0}
		assert.True(t, predictConflict(c1, c0, 0, 5))
		assert.Equal(t, 16.0, c1.detourX(c0, 0, 5, s.cfg.BayRange))
		assert.Equal(t, 15.0, c1.boundaryX(c0, 0, 5))
		assert.Equal(t, 8.0, c0.clearanceX(14, 5, s.cfg.BayRange))
	})
}
