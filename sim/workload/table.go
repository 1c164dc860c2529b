// Package workload reads, writes and generates the inbound plate tables: one
// ordered table per job class, each row placing one plate at its origin.
package workload

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stockyard-sim/stockyard-sim/sim"
)

// Row is one plate record in its on-disk form.
type Row struct {
	PileNo  string  `yaml:"pileno"`
	PileSeq int     `yaml:"pileseq"`
	MarkNo  string  `yaml:"markno"`
	UnitW   float64 `yaml:"unitw"`
	ToPile  string  `yaml:"topile"`
}

// Tables is the workload file: the storage, reshuffle and retrieval tables.
type Tables struct {
	Storage   []Row `yaml:"storage"`
	Reshuffle []Row `yaml:"reshuffle"`
	Retrieval []Row `yaml:"retrieval"`
}

// Load reads a workload file.
func Load(path string) (sim.Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Workload{}, fmt.Errorf("reading workload: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses workload tables strictly: unknown fields are errors.
func Decode(r io.Reader) (sim.Workload, error) {
	var t Tables
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&t); err != nil && err != io.EOF {
		return sim.Workload{}, fmt.Errorf("parsing workload: %w", err)
	}
	if err := t.Validate(); err != nil {
		return sim.Workload{}, err
	}
	return t.Workload(), nil
}

// Validate checks each row for the fields the simulator needs. Cross-checks
// against the yard happen when the simulator is built.
func (t Tables) Validate() error {
	seen := map[string]bool{}
	check := func(table string, rows []Row) error {
		for i, r := range rows {
			prefix := fmt.Sprintf("%s[%d]", table, i)
			if r.PileNo == "" || r.ToPile == "" || r.MarkNo == "" {
				return fmt.Errorf("%s: pileno, markno and topile are required", prefix)
			}
			if r.PileSeq < 1 {
				return fmt.Errorf("%s: pileseq must be >= 1, got %d", prefix, r.PileSeq)
			}
			if r.UnitW <= 0 {
				return fmt.Errorf("%s: unitw must be positive, got %f", prefix, r.UnitW)
			}
			key := fmt.Sprintf("%s/%d", r.PileNo, r.PileSeq)
			if seen[key] {
				return fmt.Errorf("%s: duplicate sequence %d on pile %s", prefix, r.PileSeq, r.PileNo)
			}
			seen[key] = true
		}
		return nil
	}
	if err := check("storage", t.Storage); err != nil {
		return err
	}
	if err := check("reshuffle", t.Reshuffle); err != nil {
		return err
	}
	return check("retrieval", t.Retrieval)
}

// Workload converts the tables to simulator records.
func (t Tables) Workload() sim.Workload {
	return sim.Workload{
		Storage:   toRecords(t.Storage),
		Reshuffle: toRecords(t.Reshuffle),
		Retrieval: toRecords(t.Retrieval),
	}
}

// FromWorkload converts simulator records back to their on-disk form.
func FromWorkload(wl sim.Workload) Tables {
	return Tables{
		Storage:   toRows(wl.Storage),
		Reshuffle: toRows(wl.Reshuffle),
		Retrieval: toRows(wl.Retrieval),
	}
}

func toRecords(rows []Row) []sim.PlateRecord {
	out := make([]sim.PlateRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, sim.PlateRecord{
			PileID:            r.PileNo,
			SequenceNo:        r.PileSeq,
			MarkNo:            r.MarkNo,
			Weight:            r.UnitW,
			DestinationPileID: r.ToPile,
		})
	}
	return out
}

func toRows(recs []sim.PlateRecord) []Row {
	out := make([]Row, 0, len(recs))
	for _, r := range recs {
		out = append(out, Row{
			PileNo:  r.PileID,
			PileSeq: r.SequenceNo,
			MarkNo:  r.MarkNo,
			UnitW:   r.Weight,
			ToPile:  r.DestinationPileID,
		})
	}
	return out
}

// Encode writes the workload as YAML tables.
func Encode(w io.Writer, wl sim.Workload) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromWorkload(wl)); err != nil {
		return fmt.Errorf("encoding workload: %w", err)
	}
	return enc.Close()
}

// Save writes the workload to path.
func Save(path string, wl sim.Workload) error {
	var buf bytes.Buffer
	if err := Encode(&buf, wl); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing workload: %w", err)
	}
	return nil
}
