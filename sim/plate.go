package sim

// Plate is the immutable unit of work. It is held by value so no holder can
// mutate another's copy; at any instant exactly one location stack or one crane
// payload holds a given plate ID.
type Plate struct {
	ID          int
	Name        string
	Weight      float64
	Origin      string // location ID the plate starts at
	Destination string // location ID the plate must end at
}

// PlateRecord is one row of an inbound workload table.
type PlateRecord struct {
	PileID            string
	SequenceNo        int
	MarkNo            string
	Weight            float64
	DestinationPileID string
}

// Workload holds the three ordered workload tables, one per job class.
type Workload struct {
	Storage   []PlateRecord
	Reshuffle []PlateRecord
	Retrieval []PlateRecord
}

// Len returns the total number of plate records.
func (w Workload) Len() int {
	return len(w.Storage) + len(w.Reshuffle) + len(w.Retrieval)
}
