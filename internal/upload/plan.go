package upload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/redlinedata/redline/internal/query"
	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

// Change is one cell that differs between the original and reconciled tables.
type Change struct {
	// Row is the 0-based row index in both tables
	Row int

	// AcquisitionID ties the row to its store record
	AcquisitionID string

	// FileType selects which of the acquisition's files the row describes
	FileType string

	// Column is the edited column
	Column string

	// Original is the value before the edit, normalized
	Original string

	// Modified is the value after the edit, normalized
	Modified string
}

// String returns a human-readable description of the change.
func (c Change) String() string {
	return fmt.Sprintf("row %d: %s: %q -> %q", c.Row, c.Column, c.Original, c.Modified)
}

// rowUpdate collects one row's changes, routed into the three store payloads.
type rowUpdate struct {
	row            int
	acquisitionID  string
	fileType       string
	info           map[string]any
	classification map[string][]string
	attrs          map[string]any
}

// uploadPlan is the outcome of re-diffing the two tables.
type uploadPlan struct {
	changes  []Change
	updates  []rowUpdate
	warnings []string
	skipped  int
}

// fileAttrs maps uploadable scalar columns to the store's file attribute
// names.
var fileAttrs = map[string]string{
	constants.FilenameColumn: "name",
	constants.FileTypeColumn: "type",
	"modality":               "modality",
}

// plan re-diffs the original table against the reconciled one. The tables
// must have the same columns and the same rows in the same order; the
// identity column is checked row by row so that a reordered or truncated
// reconciled table is rejected rather than silently mismatched.
func plan(original, reconciled *tables.Table) (*uploadPlan, error) {
	if original == nil || reconciled == nil {
		return nil, errors.NewValidationError("tables", nil, "both the original and reconciled tables are required")
	}
	if err := original.RequireColumns(constants.DefaultIdentityColumn, constants.FileTypeColumn); err != nil {
		return nil, err
	}
	if err := checkColumns(original, reconciled); err != nil {
		return nil, err
	}
	if original.Len() != reconciled.Len() {
		return nil, errors.NewValidationError("reconciled", reconciled.Len(),
			fmt.Sprintf("has %d rows but the original has %d; the tables cannot be compared row by row",
				reconciled.Len(), original.Len()))
	}

	p := &uploadPlan{}
	warned := map[string]bool{}

	for row := 0; row < original.Len(); row++ {
		id, _ := original.Cell(row, constants.DefaultIdentityColumn)
		recID, _ := reconciled.Cell(row, constants.DefaultIdentityColumn)
		if id != recID {
			return nil, errors.NewValidationError(constants.DefaultIdentityColumn, recID,
				fmt.Sprintf("row %d does not match the original table; both tables must come from the same query", row))
		}
		fileType, _ := original.Cell(row, constants.FileTypeColumn)
		fileType = tables.Normalize(fileType)

		var update *rowUpdate
		for _, column := range original.Columns() {
			origValue, _ := original.Cell(row, column)
			recValue, _ := reconciled.Cell(row, column)
			origValue = tables.Normalize(origValue)
			recValue = tables.Normalize(recValue)
			if tables.EqualValues(origValue, recValue) {
				continue
			}

			p.changes = append(p.changes, Change{
				Row:           row,
				AcquisitionID: id,
				FileType:      fileType,
				Column:        column,
				Original:      origValue,
				Modified:      recValue,
			})

			if reason := skipReason(column); reason != "" {
				if !warned[column] {
					warned[column] = true
					p.skipped++
					p.warnings = append(p.warnings, fmt.Sprintf("column %s %s; its edits are skipped", column, reason))
				}
				continue
			}

			if update == nil {
				update = &rowUpdate{row: row, acquisitionID: id, fileType: fileType}
			}
			route(update, column, recValue)
		}
		if update != nil {
			p.updates = append(p.updates, *update)
		}
	}
	return p, nil
}

// Plan re-diffs the original table against the reconciled one without
// touching the store, returning the cell changes an upload would push and
// any per-column skip warnings. Used to validate a table pair before a
// store client exists.
func Plan(original, reconciled *tables.Table) ([]Change, []string, error) {
	p, err := plan(original, reconciled)
	if err != nil {
		return nil, nil, err
	}
	return p.changes, p.warnings, nil
}

// checkColumns requires the two tables to carry the same column set.
func checkColumns(original, reconciled *tables.Table) error {
	missing := reconciled.MissingColumns(original.Columns()...)
	extra := original.MissingColumns(reconciled.Columns()...)
	if len(missing) > 0 || len(extra) > 0 {
		return errors.NewSchemaMismatchError("original", "reconciled", missing, extra)
	}
	return nil
}

// skipReason reports why a column cannot be uploaded, or "" if it can.
func skipReason(column string) string {
	switch {
	case column == constants.GroupIDColumn, column == constants.GroupsColumn:
		return "is grouping bookkeeping and cannot be uploaded"
	case strings.Contains(column, "."):
		return "holds hierarchy metadata and cannot be uploaded"
	}
	if _, ok := fileAttrs[column]; ok {
		return ""
	}
	if strings.HasPrefix(column, "classification_") || strings.HasPrefix(column, "info_") {
		return ""
	}
	return "does not map to any file attribute"
}

// route folds one changed cell into the row's update payloads. Column names
// are split on underscores to rebuild the nesting the query layer flattened.
func route(update *rowUpdate, column, value string) {
	switch {
	case strings.HasPrefix(column, "classification_"):
		axis := strings.TrimPrefix(column, "classification_")
		if update.classification == nil {
			update.classification = map[string][]string{}
		}
		update.classification[axis] = query.SplitList(value)

	case strings.HasPrefix(column, "info_"):
		path := strings.Split(column, "_")[1:]
		if update.info == nil {
			update.info = map[string]any{}
		}
		mergeInfo(update.info, nest(path, typedValue(value)))

	default:
		if update.attrs == nil {
			update.attrs = map[string]any{}
		}
		update.attrs[fileAttrs[column]] = attrValue(value)
	}
}

// nest builds a nested map from an underscore-split column path, the inverse
// of how the query layer flattens metadata.
func nest(path []string, value any) map[string]any {
	if len(path) == 1 {
		return map[string]any{path[0]: value}
	}
	return map[string]any{path[0]: nest(path[1:], value)}
}

// mergeInfo folds src into dst, merging nested maps key by key so that two
// edits under the same parent end up in one payload.
func mergeInfo(dst, src map[string]any) {
	for key, value := range src {
		if sub, ok := value.(map[string]any); ok {
			if existing, ok := dst[key].(map[string]any); ok {
				mergeInfo(existing, sub)
				continue
			}
		}
		dst[key] = value
	}
}

// typedValue converts a CSV cell back to the JSON type the store expects.
// Null cells become JSON null, which clears the key remotely.
func typedValue(s string) any {
	if tables.IsNull(s) {
		return nil
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// attrValue keeps scalar file attributes as strings. A numeric-looking
// filename must stay a string.
func attrValue(s string) any {
	if tables.IsNull(s) {
		return nil
	}
	return s
}
