package trace

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// EventLog collects records during a run. A disabled log drops every record,
// so recording costs nothing when the flag is off.
type EventLog struct {
	enabled bool
	records []Record
}

// NewEventLog creates an EventLog; enabled mirrors the run's record flag.
func NewEventLog(enabled bool) *EventLog {
	return &EventLog{enabled: enabled, records: make([]Record, 0)}
}

// Enabled reports whether records are being kept.
func (l *EventLog) Enabled() bool { return l != nil && l.enabled }

// Record appends a record if the log is enabled.
func (l *EventLog) Record(r Record) {
	if !l.Enabled() {
		return
	}
	l.records = append(l.records, r)
}

// Records returns a copy of the recorded entries in order.
func (l *EventLog) Records() []Record {
	if l == nil {
		return nil
	}
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// WriteYAML encodes the records as a YAML sequence.
func (l *EventLog) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l.Records()); err != nil {
		return fmt.Errorf("encoding event log: %w", err)
	}
	return enc.Close()
}
