package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_SplitsByActivity(t *testing.T) {
	// GIVEN a crane that detours, waits, moves and then parks
	records := []Record{
		{Time: 0, Kind: KindMoveFrom, Crane: "Crane-0", Avoidance: true},
		{Time: 4, Kind: KindMoveTo, Crane: "Crane-0"},
		{Time: 4, Kind: KindWaitingStart, Crane: "Crane-0"},
		{Time: 9, Kind: KindWaitingFinish, Crane: "Crane-0"},
		{Time: 9, Kind: KindMoveFrom, Crane: "Crane-0"},
		{Time: 15, Kind: KindMoveTo, Crane: "Crane-0"},
		{Time: 15, Kind: KindIdleStart, Crane: "Crane-0"},
		{Time: 3, Kind: KindRetrievalArrival, Location: "cn1"},
	}

	// WHEN summarized up to t=20
	acc := Summarize(records, 20)

	// THEN the open idle interval is closed at the end and location events are ignored
	assert.Len(t, acc, 1)
	a := acc["Crane-0"]
	assert.Equal(t, 9.0, a.Avoiding)
	assert.Equal(t, 6.0, a.Moving)
	assert.Equal(t, 5.0, a.Idle)
	assert.Equal(t, 20.0, a.Total())
}

func TestSummarize_InterruptedLegClosesAtPrediction(t *testing.T) {
	records := []Record{
		{Time: 0, Kind: KindMoveFrom, Crane: "Crane-1"},
		{Time: 2, Kind: KindInterferencePredicted, Crane: "Crane-1"},
		{Time: 2, Kind: KindMoveFrom, Crane: "Crane-1"},
		{Time: 7, Kind: KindMoveTo, Crane: "Crane-1"},
	}
	acc := Summarize(records, 7)
	assert.Equal(t, TimeAccount{Moving: 7}, acc["Crane-1"])
}

func TestCountByKind(t *testing.T) {
	records := []Record{
		{Kind: KindPickUp}, {Kind: KindPickUp}, {Kind: KindPutDown},
	}
	counts := CountByKind(records)
	assert.Equal(t, 2, counts[KindPickUp])
	assert.Equal(t, 1, counts[KindPutDown])
	assert.Zero(t, counts[KindIdleStart])
}
