// Package provenance records the audit trail of a reconciliation run: one
// entry per cell change actually propagated to the record table, keyed by
// original-table row and column. A log is append-only, stamped with a run id
// and creation time, and tied 1:1 to a single reconciler invocation. The CSV
// form is the canonical user-visible artifact and can be replayed onto a
// table to re-apply or verify a run.
package provenance

import (
	"time"

	"github.com/google/uuid"

	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

// Entry records one accepted cell change.
type Entry struct {
	// GroupID is the group the edit came from. Entries loaded from disk
	// carry no group attribution and hold -1.
	GroupID int

	// Row is the original-table row index the change was propagated to.
	Row int

	// Column is the column that changed.
	Column string

	// Original is the pre-edit value. Empty means null.
	Original string

	// Modified is the post-edit value. Empty means null.
	Modified string

	// Flagged marks an apparent type mismatch between the modified value
	// and the column. The change is still recorded; the validator decides.
	Flagged bool
}

// Log is the append-only audit record of a single reconciliation run.
type Log struct {
	// RunID uniquely identifies the reconciliation run.
	RunID string

	// CreatedAt is when the run started, in UTC.
	CreatedAt time.Time

	// GroupingColumns are the columns the run grouped by.
	GroupingColumns []string

	entries []Entry
}

// New creates an empty log for a fresh run.
func New(groupingColumns ...string) *Log {
	return &Log{
		RunID:           uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		GroupingColumns: groupingColumns,
	}
}

// Append adds an entry to the log.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log's entries in append order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether the log holds no entries.
func (l *Log) IsEmpty() bool {
	return len(l.entries) == 0
}

// Flagged returns the entries carrying a type mismatch flag.
func (l *Log) Flagged() []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Flagged {
			out = append(out, e)
		}
	}
	return out
}

// Apply replays the log onto a table, overwriting each entry's target cell
// with the modified value. Cells already holding the modified value are left
// alone, so re-applying a log to an already-reconciled table changes nothing.
// Returns the number of cells actually changed.
func (l *Log) Apply(t *tables.Table) (int, error) {
	applied := 0
	for _, e := range l.entries {
		if e.Row < 0 || e.Row >= t.Len() {
			return applied, errors.NewValidationError("row", e.Row, "row index outside table")
		}
		current, ok := t.Cell(e.Row, e.Column)
		if !ok {
			return applied, errors.NewSchemaError("table", []string{e.Column})
		}
		if tables.EqualValues(current, e.Modified) {
			continue
		}
		if err := t.SetCell(e.Row, e.Column, e.Modified); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Verify returns the entries whose target cell holds neither the entry's
// original nor its modified value, meaning the table diverged from the run
// this log records.
func (l *Log) Verify(t *tables.Table) []Entry {
	var diverged []Entry
	for _, e := range l.entries {
		if e.Row < 0 || e.Row >= t.Len() {
			diverged = append(diverged, e)
			continue
		}
		current, ok := t.Cell(e.Row, e.Column)
		if !ok {
			diverged = append(diverged, e)
			continue
		}
		if !tables.EqualValues(current, e.Modified) && !tables.EqualValues(current, e.Original) {
			diverged = append(diverged, e)
		}
	}
	return diverged
}
