package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ExportDateLayout matches the ISO-8601 form browsers produce for the backup
// file's exportDate field.
const ExportDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is a full export of the store: one record list per collection plus
// the capture time. On the wire it is a single JSON object with one field per
// collection, exportDate and schemaVersion.
type Snapshot struct {
	ExportDate    time.Time
	SchemaVersion int
	Collections   map[string][]Record
}

// NewSnapshot returns an empty snapshot stamped with the current schema
// version and the given capture time.
func NewSnapshot(at time.Time) *Snapshot {
	return &Snapshot{
		ExportDate:    at.UTC(),
		SchemaVersion: SchemaVersion,
		Collections:   make(map[string][]Record),
	}
}

// Len returns the number of records across all collections.
func (s *Snapshot) Len() int {
	n := 0
	for _, recs := range s.Collections {
		n += len(recs)
	}
	return n
}

// MarshalJSON writes collections in schema order, then exportDate and
// schemaVersion. Collections absent from the map are omitted.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, name := range StandardCollectionNames {
		recs, ok := s.Collections[name]
		if !ok {
			continue
		}
		if recs == nil {
			recs = []Record{}
		}
		data, err := json.Marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		fmt.Fprintf(&buf, "%q:", name)
		buf.Write(data)
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, "%q:%q,", "exportDate", s.ExportDate.UTC().Format(ExportDateLayout))
	fmt.Fprintf(&buf, "%q:%d", "schemaVersion", s.SchemaVersion)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a backup document. Unknown fields are ignored and a
// null collection counts as absent. A missing schemaVersion reads as 0, the
// marker of files written before versions were recorded.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: backup document: %v", ErrInvalidData, err)
	}

	out := Snapshot{Collections: make(map[string][]Record)}

	if raw, ok := fields["exportDate"]; ok {
		var stamp string
		if err := json.Unmarshal(raw, &stamp); err != nil {
			return fmt.Errorf("%w: exportDate: %v", ErrInvalidData, err)
		}
		at, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return fmt.Errorf("%w: exportDate: %v", ErrInvalidData, err)
		}
		out.ExportDate = at.UTC()
	}
	if raw, ok := fields["schemaVersion"]; ok {
		if err := json.Unmarshal(raw, &out.SchemaVersion); err != nil {
			return fmt.Errorf("%w: schemaVersion: %v", ErrInvalidData, err)
		}
	}

	for _, name := range StandardCollectionNames {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%w: %s is not a record list: %v", ErrInvalidData, name, err)
		}
		recs := make([]Record, 0, len(items))
		for _, item := range items {
			rec, err := DecodeRecord(name, item)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		out.Collections[name] = recs
	}

	*s = out
	return nil
}
