// Package tables provides the ordered, column-typed record table shared by
// every stage of the round-trip editing pipeline. A table preserves both
// column order and row order, holds every cell as text with the empty string
// as the canonical null, and carries no behavior beyond access, cloning, and
// the CSV codec. Grouping and reconciliation live in their own packages.
package tables

import (
	"fmt"

	"github.com/redlinedata/redline/pkg/errors"
)

// Record maps column names to cell values. Values are text; the empty string
// is the canonical null.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of records sharing one column set.
type Table struct {
	cols  []string
	index map[string]int // column name -> position
	rows  []Record
}

// New creates an empty table with the given columns.
// Column names must be non-empty and unique.
func New(columns ...string) (*Table, error) {
	t := &Table{
		cols:  make([]string, 0, len(columns)),
		index: make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if c == "" {
			return nil, &errors.SchemaError{Table: "table", Message: "empty column name"}
		}
		if _, dup := t.index[c]; dup {
			return nil, &errors.SchemaError{Table: "table", Message: fmt.Sprintf("duplicate column %q", c)}
		}
		t.index[c] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Columns returns the column names in order. The slice is a copy.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MissingColumns returns the subset of names absent from the table's schema,
// preserving the order given.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// RequireColumns fails with a SchemaError if any of the named columns are
// absent.
func (t *Table) RequireColumns(names ...string) error {
	if missing := t.MissingColumns(names...); len(missing) > 0 {
		return errors.NewSchemaError("table", missing)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the record at the given index. The record is shared with the
// table; callers must treat it as read-only and mutate cells through SetCell.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Cell returns the value at (row, column) and whether the column exists.
// A missing cell in an existing column reads as null.
func (t *Table) Cell(row int, column string) (string, bool) {
	if _, ok := t.index[column]; !ok {
		return "", false
	}
	return t.rows[row][column], true
}

// SetCell overwrites the value at (row, column).
func (t *Table) SetCell(row int, column, value string) error {
	if row < 0 || row >= len(t.rows) {
		return errors.NewValidationError("row", row, "row index out of range")
	}
	if _, ok := t.index[column]; !ok {
		return errors.NewSchemaError("table", []string{column})
	}
	t.rows[row][column] = value
	return nil
}

// Append adds a record. Keys must be a subset of the table's columns; absent
// keys read as null.
func (t *Table) Append(rec Record) error {
	for k := range rec {
		if _, ok := t.index[k]; !ok {
			return errors.NewSchemaError("table", []string{k})
		}
	}
	row := make(Record, len(t.cols))
	for k, v := range rec {
		row[k] = v
	}
	t.rows = append(t.rows, row)
	return nil
}

// AppendValues adds a row from positional values matching the column order.
func (t *Table) AppendValues(values ...string) error {
	if len(values) != len(t.cols) {
		return errors.NewValidationError("values", len(values),
			fmt.Sprintf("expected %d values, got %d", len(t.cols), len(values)))
	}
	row := make(Record, len(t.cols))
	for i, v := range values {
		row[t.cols[i]] = v
	}
	t.rows = append(t.rows, row)
	return nil
}

// Values returns the row's cell values in column order.
func (t *Table) Values(row int) []string {
	out := make([]string, len(t.cols))
	rec := t.rows[row]
	for i, c := range t.cols {
		out[i] = rec[c]
	}
	return out
}

// Clone returns a deep copy of the table. Reconciliation mutates a clone,
// never its input.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]string, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  make([]Record, len(t.rows)),
	}
	copy(out.cols, t.cols)
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, r := range t.rows {
		out.rows[i] = r.Clone()
	}
	return out
}

// WithColumns returns a new empty table carrying this table's columns plus
// the extra ones appended at the end.
func (t *Table) WithColumns(extra ...string) (*Table, error) {
	cols := make([]string, 0, len(t.cols)+len(extra))
	cols = append(cols, t.cols...)
	cols = append(cols, extra...)
	return New(cols...)
}
