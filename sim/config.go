package sim

import (
	"errors"
	"fmt"
	"math"
)

// NumCranes is fixed: the interference algorithm is defined for exactly two
// cranes, crane 0 on the left and crane 1 on the right.
const NumCranes = 2

// Range is a closed interval of yard coordinates.
type Range struct {
	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// PointConfig places an input or output point at a bay. Rate is the geometric
// demand parameter p of an output point and is ignored for input points.
type PointConfig struct {
	ID   string  `mapstructure:"id" yaml:"id"`
	Bay  float64 `mapstructure:"bay" yaml:"bay"`
	Rate float64 `mapstructure:"rate" yaml:"rate,omitempty"`
}

// PileConfig places a pile at (bay, row).
type PileConfig struct {
	ID   string   `mapstructure:"id" yaml:"id"`
	Bay  float64  `mapstructure:"bay" yaml:"bay"`
	Row  float64  `mapstructure:"row" yaml:"row"`
	Kind PileKind `mapstructure:"kind" yaml:"kind"`
}

// CraneConfig holds one crane's kinematics, initial position and batch limits.
type CraneConfig struct {
	Name            string  `mapstructure:"name" yaml:"name"`
	VelocityX       float64 `mapstructure:"velocity_x" yaml:"velocity_x"`
	VelocityY       float64 `mapstructure:"velocity_y" yaml:"velocity_y"`
	InitialBay      float64 `mapstructure:"initial_bay" yaml:"initial_bay"`
	InitialRow      float64 `mapstructure:"initial_row" yaml:"initial_row"`
	WeightLimit     float64 `mapstructure:"weight_limit" yaml:"weight_limit"`
	PlateCountLimit int     `mapstructure:"plate_count_limit" yaml:"plate_count_limit"`
	PileCountLimit  int     `mapstructure:"pile_count_limit" yaml:"pile_count_limit"`
}

// YardConfig is the complete yard geometry and crane parameters for one run.
type YardConfig struct {
	RowRange     Range         `mapstructure:"row_range" yaml:"row_range"`
	BayRange     Range         `mapstructure:"bay_range" yaml:"bay_range"`
	InputPoints  []PointConfig `mapstructure:"input_points" yaml:"input_points"`
	OutputPoints []PointConfig `mapstructure:"output_points" yaml:"output_points"`
	Piles        []PileConfig  `mapstructure:"piles" yaml:"piles"`
	Cranes       []CraneConfig `mapstructure:"cranes" yaml:"cranes"`
	SafetyMargin float64       `mapstructure:"safety_margin" yaml:"safety_margin"`
	Seed         int64         `mapstructure:"seed" yaml:"seed"`
	Horizon      float64       `mapstructure:"horizon" yaml:"horizon"` // 0 = unbounded
	RecordEvents bool          `mapstructure:"record_events" yaml:"record_events"`
}

// DefaultYardConfig returns the reference yard: two rows, bays 0..43, one
// input point at bay 0, conveyors at bays 22, 26 and 43, retrieval piles
// next to the conveyors and storage piles elsewhere.
func DefaultYardConfig() YardConfig {
	cfg := YardConfig{
		RowRange:     Range{Min: 0, Max: 1},
		BayRange:     Range{Min: 0, Max: 43},
		InputPoints:  []PointConfig{{ID: "IN0", Bay: 0}},
		OutputPoints: []PointConfig{{ID: "cn1", Bay: 22, Rate: 0.01}, {ID: "cn2", Bay: 26, Rate: 0.01}, {ID: "cn3", Bay: 43, Rate: 0.01}},
		Cranes: []CraneConfig{
			{Name: "Crane-0", VelocityX: 0.5, VelocityY: 0.25, InitialBay: 0, InitialRow: 0, WeightLimit: 40, PlateCountLimit: 5, PileCountLimit: 2},
			{Name: "Crane-1", VelocityX: 0.5, VelocityY: 0.25, InitialBay: 43, InitialRow: 0, WeightLimit: 40, PlateCountLimit: 5, PileCountLimit: 2},
		},
		SafetyMargin: 5,
		Seed:         42,
	}
	for row := 0; row <= 1; row++ {
		for bay := 1; bay <= 42; bay++ {
			if bay == 22 || bay == 26 {
				continue
			}
			kind := PileStorage
			if (bay >= 23 && bay <= 25) || (bay >= 27 && bay <= 29) {
				kind = PileRetrieval
			}
			cfg.Piles = append(cfg.Piles, PileConfig{
				ID:   fmt.Sprintf("%c%02d", 'A'+row, bay),
				Bay:  float64(bay),
				Row:  float64(row),
				Kind: kind,
			})
		}
	}
	return cfg
}

// Validate checks the geometry and crane parameters. A run never starts with
// an invalid configuration.
func (c YardConfig) Validate() error {
	if c.RowRange.Min > c.RowRange.Max {
		return fmt.Errorf("row_range min %.1f > max %.1f", c.RowRange.Min, c.RowRange.Max)
	}
	if c.BayRange.Min > c.BayRange.Max {
		return fmt.Errorf("bay_range min %.1f > max %.1f", c.BayRange.Min, c.BayRange.Max)
	}
	if c.SafetyMargin < 0 {
		return fmt.Errorf("safety_margin must be non-negative, got %f", c.SafetyMargin)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %f", c.Horizon)
	}
	seen := make(map[string]bool)
	checkID := func(id string) error {
		if id == "" {
			return errors.New("location id must not be empty")
		}
		if seen[id] {
			return fmt.Errorf("duplicate location id %q", id)
		}
		seen[id] = true
		return nil
	}
	for _, p := range c.InputPoints {
		if err := checkID(p.ID); err != nil {
			return err
		}
		if !c.BayRange.Contains(p.Bay) {
			return fmt.Errorf("input point %s: bay %.1f outside bay_range", p.ID, p.Bay)
		}
	}
	for _, p := range c.OutputPoints {
		if err := checkID(p.ID); err != nil {
			return err
		}
		if !c.BayRange.Contains(p.Bay) {
			return fmt.Errorf("output point %s: bay %.1f outside bay_range", p.ID, p.Bay)
		}
		if p.Rate <= 0 || p.Rate > 1 {
			return fmt.Errorf("output point %s: rate must be in (0, 1], got %f", p.ID, p.Rate)
		}
	}
	for _, p := range c.Piles {
		if err := checkID(p.ID); err != nil {
			return err
		}
		if !c.BayRange.Contains(p.Bay) || !c.RowRange.Contains(p.Row) {
			return fmt.Errorf("pile %s: (%.1f, %.1f) outside the yard", p.ID, p.Bay, p.Row)
		}
		if p.Kind != PileStorage && p.Kind != PileRetrieval {
			return fmt.Errorf("pile %s: unknown kind %q", p.ID, p.Kind)
		}
	}
	if len(c.Cranes) != NumCranes {
		return fmt.Errorf("exactly %d cranes required, got %d", NumCranes, len(c.Cranes))
	}
	for i, cr := range c.Cranes {
		if cr.VelocityX <= 0 || cr.VelocityY <= 0 {
			return fmt.Errorf("crane %d: velocities must be positive", i)
		}
		if !c.BayRange.Contains(cr.InitialBay) || !c.RowRange.Contains(cr.InitialRow) {
			return fmt.Errorf("crane %d: initial position outside the yard", i)
		}
		if cr.WeightLimit <= 0 || cr.PlateCountLimit <= 0 || cr.PileCountLimit <= 0 {
			return fmt.Errorf("crane %d: batch limits must be positive", i)
		}
	}
	if c.Cranes[0].InitialBay >= c.Cranes[1].InitialBay {
		return fmt.Errorf("crane 0 must start left of crane 1 (bays %.1f, %.1f)",
			c.Cranes[0].InitialBay, c.Cranes[1].InitialBay)
	}
	if gap := c.Cranes[1].InitialBay - c.Cranes[0].InitialBay; gap < c.SafetyMargin {
		return fmt.Errorf("cranes start %.1f bays apart, closer than safety_margin %.1f", gap, c.SafetyMargin)
	}
	return nil
}

// Reach is the span of bays a crane can stand at while the other crane keeps
// the safety margin: crane 0 never gets within the margin of the right end of
// the rail, crane 1 never within the margin of the left end.
func (c YardConfig) Reach(craneID int) Range {
	if craneID == 0 {
		return Range{Min: c.BayRange.Min, Max: c.BayRange.Max - c.SafetyMargin}
	}
	return Range{Min: c.BayRange.Min + c.SafetyMargin, Max: c.BayRange.Max}
}

// Deliverable reports whether one crane can reach both bays, which a plate
// moved between them requires.
func (c YardConfig) Deliverable(fromBay, toBay float64) bool {
	for id := 0; id < NumCranes; id++ {
		r := c.Reach(id)
		if r.Contains(fromBay) && r.Contains(toBay) {
			return true
		}
	}
	return false
}
