// Package testutil provides shared test infrastructure for the stockyard
// simulator. It holds the golden scenario types and assertion helpers used by
// sim/ test packages, and deliberately does not import sim so that package's
// internal tests can use it.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"
)

// GoldenDataset represents the structure of testdata/golden_scenarios.yaml.
type GoldenDataset struct {
	Scenarios []GoldenScenario `yaml:"scenarios"`
}

// GoldenPlate is one workload row of a golden scenario.
type GoldenPlate struct {
	Pile   string  `yaml:"pile"`
	Seq    int     `yaml:"seq"`
	Mark   string  `yaml:"mark"`
	Weight float64 `yaml:"weight"`
	To     string  `yaml:"to"`
}

// GoldenScenario is a small workload replayed on the test yard with the
// first-candidate, single-pick, always-yield policy.
type GoldenScenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Storage     []GoldenPlate `yaml:"storage"`
	Reshuffle   []GoldenPlate `yaml:"reshuffle"`
	Retrieval   []GoldenPlate `yaml:"retrieval"`
	Expected    GoldenMetrics `yaml:"expected"`
}

// GoldenMetrics represents the expected outcome of a golden scenario.
type GoldenMetrics struct {
	// Exact match
	PlatesDelivered int                 `yaml:"plates_delivered"`
	StorageJobs     int                 `yaml:"storage_jobs"`
	ReshuffleJobs   int                 `yaml:"reshuffle_jobs"`
	RetrievalJobs   int                 `yaml:"retrieval_jobs"`
	Stacks          map[string][]string `yaml:"stacks"` // location -> plate names, bottom first

	// Simulated times
	EndTime float64       `yaml:"end_time"`
	Cranes  []GoldenCrane `yaml:"cranes"`
}

// GoldenCrane is the expected accounting of one crane.
type GoldenCrane struct {
	IdleTime        float64 `yaml:"idle_time"`
	MovingTime      float64 `yaml:"moving_time"`
	AvoidingTime    float64 `yaml:"avoiding_time"`
	EmptyTravelTime float64 `yaml:"empty_travel_time"`
	PickUps         int     `yaml:"pick_ups"`
	PutDowns        int     `yaml:"put_downs"`
	Interferences   int     `yaml:"interferences"`
	Detours         int     `yaml:"detours"`
}

// LoadGoldenDataset loads the golden scenarios from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_scenarios.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
