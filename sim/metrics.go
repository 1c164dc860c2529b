// Tracks simulation-wide and per-crane performance metrics such as:
// job counts, plate deliveries and the idle/moving/avoiding time split.

package sim

import (
	"fmt"
	"io"
)

// CraneMetrics accumulates one crane's time accounting and activity counts.
type CraneMetrics struct {
	Name            string
	IdleTime        float64 // parked without work
	MovingTime      float64 // travelling toward a stop
	AvoidingTime    float64 // detour legs plus avoidance waits
	EmptyTravelTime float64 // part of MovingTime with an empty payload
	PickUps         int
	PutDowns        int
	Interferences   int // legs cut short by the other crane's prediction
	Detours         int
	JobsCompleted   int
}

// Metrics aggregates statistics about the simulation
// for final reporting.
type Metrics struct {
	SimEndedTime    float64
	PlatesTotal     int
	PlatesDelivered int
	StorageJobs     int
	ReshuffleJobs   int
	RetrievalJobs   int
	DemandArrivals  int
	Cranes          [NumCranes]CraneMetrics
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %.2f\n", m.SimEndedTime)
	fmt.Fprintf(w, "Plates Delivered     : %d / %d\n", m.PlatesDelivered, m.PlatesTotal)
	fmt.Fprintf(w, "Jobs (S/R/T)         : %d / %d / %d\n", m.StorageJobs, m.ReshuffleJobs, m.RetrievalJobs)
	fmt.Fprintf(w, "Retrieval Demands    : %d\n", m.DemandArrivals)
	for _, c := range m.Cranes {
		fmt.Fprintf(w, "--- %s ---\n", c.Name)
		fmt.Fprintf(w, "  Jobs Completed     : %d\n", c.JobsCompleted)
		fmt.Fprintf(w, "  Pick-Ups/Put-Downs : %d / %d\n", c.PickUps, c.PutDowns)
		fmt.Fprintf(w, "  Interferences      : %d (detours %d)\n", c.Interferences, c.Detours)
		if m.SimEndedTime > 0 {
			fmt.Fprintf(w, "  Idle Time          : %.2f (%.1f%%)\n", c.IdleTime, 100*c.IdleTime/m.SimEndedTime)
			fmt.Fprintf(w, "  Moving Time        : %.2f (%.1f%%)\n", c.MovingTime, 100*c.MovingTime/m.SimEndedTime)
			fmt.Fprintf(w, "  Avoiding Time      : %.2f (%.1f%%)\n", c.AvoidingTime, 100*c.AvoidingTime/m.SimEndedTime)
			fmt.Fprintf(w, "  Empty Travel       : %.2f\n", c.EmptyTravelTime)
		}
	}
}
