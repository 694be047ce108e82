// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"strconv"

	"github.com/redlinedata/redline/pkg/tables"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// RecordsToTableData converts a record table to table format. Null cells
// render as empty strings, matching the CSV form.
func RecordsToTableData(t *tables.Table) Data {
	rows := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rows = append(rows, t.Values(i))
	}
	return Data{
		Headers: t.Columns(),
		Rows:    rows,
	}
}

// truncate shortens long cell values for terminal rendering.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatRow renders a 0-based row index for display.
func formatRow(row int) string {
	if row < 0 {
		return "-"
	}
	return strconv.Itoa(row)
}
