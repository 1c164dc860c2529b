// Package trace provides the simulation event log and per-crane time accounting.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventKind names one kind of event-log record.
type EventKind string

const (
	KindMoveFrom              EventKind = "Move-From"
	KindMoveTo                EventKind = "Move-To"
	KindPickUp                EventKind = "Pick-Up"
	KindPutDown               EventKind = "Put-Down"
	KindWaitingStart          EventKind = "Waiting-Start"
	KindWaitingFinish         EventKind = "Waiting-Finish"
	KindInterferencePredicted EventKind = "Interference-Predicted"
	KindRetrievalArrival      EventKind = "Retrieval-Arrival"
	KindIdleStart             EventKind = "Idle-Start"
	KindIdleFinish            EventKind = "Idle-Finish"
)

// Record is one event-log entry. Crane is empty for location events such as
// Retrieval-Arrival; X and Y are the crane position at the time of the event.
type Record struct {
	Time      float64   `yaml:"time"`
	Kind      EventKind `yaml:"kind"`
	Crane     string    `yaml:"crane,omitempty"`
	Location  string    `yaml:"location,omitempty"`
	Plate     string    `yaml:"plate,omitempty"`
	X         float64   `yaml:"x,omitempty"`
	Y         float64   `yaml:"y,omitempty"`
	Avoidance bool      `yaml:"avoidance,omitempty"` // Move-From of a detour leg
}
