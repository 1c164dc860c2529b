package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultYardConfig_IsValid(t *testing.T) {
	cfg := DefaultYardConfig()
	require.NoError(t, cfg.Validate())

	// Bays 22 and 26 hold conveyors, so each row has 40 piles.
	assert.Len(t, cfg.Piles, 80)
	retrieval := 0
	for _, p := range cfg.Piles {
		if p.Kind == PileRetrieval {
			retrieval++
		}
	}
	assert.Equal(t, 12, retrieval)
}

func TestYardConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*YardConfig)
		want   string
	}{
		{"inverted rows", func(c *YardConfig) { c.RowRange = Range{Min: 1, Max: 0} }, "row_range"},
		{"negative margin", func(c *YardConfig) { c.SafetyMargin = -1 }, "safety_margin"},
		{"negative horizon", func(c *YardConfig) { c.Horizon = -5 }, "horizon"},
		{"duplicate id", func(c *YardConfig) { c.InputPoints = append(c.InputPoints, PointConfig{ID: "A01"}) }, "duplicate"},
		{"output rate zero", func(c *YardConfig) { c.OutputPoints[0].Rate = 0 }, "rate"},
		{"output rate above one", func(c *YardConfig) { c.OutputPoints[0].Rate = 1.5 }, "rate"},
		{"pile outside yard", func(c *YardConfig) { c.Piles[0].Row = 3 }, "outside the yard"},
		{"unknown pile kind", func(c *YardConfig) { c.Piles[0].Kind = "buffer" }, "unknown kind"},
		{"one crane", func(c *YardConfig) { c.Cranes = c.Cranes[:1] }, "exactly 2 cranes"},
		{"zero velocity", func(c *YardConfig) { c.Cranes[1].VelocityY = 0 }, "velocities"},
		{"zero plate limit", func(c *YardConfig) { c.Cranes[0].PlateCountLimit = 0 }, "batch limits"},
		{"cranes crossed", func(c *YardConfig) { c.Cranes[0].InitialBay, c.Cranes[1].InitialBay = 43, 0 }, "left of crane 1"},
		{"cranes inside the margin", func(c *YardConfig) { c.Cranes[0].InitialBay, c.Cranes[1].InitialBay = 20, 23 }, "closer than safety_margin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultYardConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestYardConfig_Reach(t *testing.T) {
	// GIVEN the default 0..43 rail with a 5-bay margin
	cfg := DefaultYardConfig()

	// THEN each crane keeps the margin's width of rail for the other
	assert.Equal(t, Range{Min: 0, Max: 38}, cfg.Reach(0))
	assert.Equal(t, Range{Min: 5, Max: 43}, cfg.Reach(1))

	// AND a trip is deliverable when one crane reaches both ends
	assert.True(t, cfg.Deliverable(0, 38), "crane 0")
	assert.True(t, cfg.Deliverable(43, 5), "crane 1")
	assert.True(t, cfg.Deliverable(20, 25), "either")
	assert.False(t, cfg.Deliverable(0, 40), "input point to the far end")
	assert.False(t, cfg.Deliverable(3, 42))
}

func TestRange_Clamp(t *testing.T) {
	r := Range{Min: 0, Max: 43}
	assert.Equal(t, 0.0, r.Clamp(-2))
	assert.Equal(t, 43.0, r.Clamp(50))
	assert.Equal(t, 12.5, r.Clamp(12.5))
	assert.True(t, r.Contains(43))
	assert.False(t, r.Contains(43.1))
}
