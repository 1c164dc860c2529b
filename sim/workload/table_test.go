package workload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

const sampleTables = `
storage:
  - {pileno: IN0, pileseq: 1, markno: SP-001, unitw: 12.5, topile: A05}
  - {pileno: IN0, pileseq: 2, markno: SP-002, unitw: 3.25, topile: A07}
reshuffle:
  - {pileno: A10, pileseq: 1, markno: SP-003, unitw: 8, topile: A12}
retrieval:
  - {pileno: A24, pileseq: 1, markno: SP-004, unitw: 1.5, topile: cn1}
`

func TestDecode_Tables(t *testing.T) {
	wl, err := Decode(strings.NewReader(sampleTables))
	require.NoError(t, err)

	require.Len(t, wl.Storage, 2)
	assert.Equal(t, sim.PlateRecord{
		PileID: "IN0", SequenceNo: 2, MarkNo: "SP-002", Weight: 3.25, DestinationPileID: "A07",
	}, wl.Storage[1])
	require.Len(t, wl.Reshuffle, 1)
	assert.Equal(t, "A12", wl.Reshuffle[0].DestinationPileID)
	require.Len(t, wl.Retrieval, 1)
	assert.Equal(t, "cn1", wl.Retrieval[0].DestinationPileID)
}

func TestDecode_EmptyInputIsEmptyWorkload(t *testing.T) {
	wl, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, wl.Storage)
	assert.Empty(t, wl.Reshuffle)
	assert.Empty(t, wl.Retrieval)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "storage:\n  - {pileno: IN0, pileseq: 1, markno: a, unitw: 1, topile: A05, colour: red}\n", "colour"},
		{"unknown table", "buffer: []\n", "buffer"},
		{"missing topile", "storage:\n  - {pileno: IN0, pileseq: 1, markno: a, unitw: 1}\n", "required"},
		{"zero sequence", "storage:\n  - {pileno: IN0, pileseq: 0, markno: a, unitw: 1, topile: A05}\n", "pileseq"},
		{"zero weight", "reshuffle:\n  - {pileno: A10, pileseq: 1, markno: a, unitw: 0, topile: A05}\n", "unitw"},
		{"duplicate sequence", "storage:\n  - {pileno: IN0, pileseq: 1, markno: a, unitw: 1, topile: A05}\n  - {pileno: IN0, pileseq: 1, markno: b, unitw: 1, topile: A05}\n", "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	// GIVEN a decoded workload written to disk
	wl, err := Decode(strings.NewReader(sampleTables))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "workload.yaml")
	require.NoError(t, Save(path, wl))

	// WHEN it is loaded again
	back, err := Load(path)

	// THEN nothing is lost and the on-disk column names are used
	require.NoError(t, err)
	assert.Equal(t, wl, back)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "topile: A05")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading workload")
}

func TestEncode_EmptyWorkload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sim.Workload{}))
	assert.Contains(t, buf.String(), "storage: []")
}
