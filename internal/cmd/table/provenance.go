package table

import (
	"github.com/redlinedata/redline/internal/upload"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/validate"
)

// nullDisplay is how null values render in terminal tables. The CSV form
// uses the provenance package's own token; this is display only.
const nullDisplay = "(null)"

// ProvenanceToTableData converts a provenance log to table format, one row
// per recorded cell change in append order.
func ProvenanceToTableData(log *provenance.Log) Data {
	rows := make([][]string, 0, log.Len())
	for _, e := range log.Entries() {
		flag := ""
		if e.Flagged {
			flag = "type"
		}
		rows = append(rows, []string{
			formatRow(e.Row),
			e.Column,
			displayValue(e.Original),
			displayValue(e.Modified),
			flag,
		})
	}
	return Data{
		Headers: []string{"Row", "Column", "Original", "Modified", "Flag"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignRight,  // Row
			AlignLeft,   // Column
			AlignLeft,   // Original
			AlignLeft,   // Modified
			AlignCenter, // Flag
		},
	}
}

// ViolationsToTableData converts validation violations to table format.
func ViolationsToTableData(violations []validate.Violation) Data {
	rows := make([][]string, 0, len(violations))
	for _, v := range violations {
		rows = append(rows, []string{
			formatRow(v.Row),
			v.Column,
			displayValue(v.Value),
			v.Message,
		})
	}
	return Data{
		Headers: []string{"Row", "Column", "Value", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignRight, // Row
			AlignLeft,  // Column
			AlignLeft,  // Value
			AlignLeft,  // Reason
		},
	}
}

// ChangesToTableData converts planned upload changes to table format.
func ChangesToTableData(changes []upload.Change) Data {
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			formatRow(c.Row),
			c.AcquisitionID,
			c.Column,
			displayValue(c.Original),
			displayValue(c.Modified),
		})
	}
	return Data{
		Headers: []string{"Row", "Acquisition", "Column", "Original", "Modified"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignRight, // Row
			AlignLeft,  // Acquisition
			AlignLeft,  // Column
			AlignLeft,  // Original
			AlignLeft,  // Modified
		},
	}
}

// displayValue renders a cell value for a terminal table.
func displayValue(v string) string {
	if v == "" {
		return nullDisplay
	}
	return truncate(v, 60)
}
