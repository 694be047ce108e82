package reconcile

import (
	"sort"
	"strconv"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/tables"
)

// groupingColumns extracts the grouping column list a group table carries in
// its groups column. Every row must carry the same list; the grouper writes
// one invocation's columns into every row it emits, so divergence means the
// file was hand-edited in a way the reconciler cannot trust.
func groupingColumns(t *tables.Table, name string) ([]string, error) {
	if err := t.RequireColumns(constants.GroupIDColumn, constants.GroupsColumn); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, errors.NewValidationError(constants.GroupsColumn, "", name+" table has no rows")
	}

	first, _ := t.Cell(0, constants.GroupsColumn)
	for i := 1; i < t.Len(); i++ {
		v, _ := t.Cell(i, constants.GroupsColumn)
		if v != first {
			return nil, errors.NewValidationError(constants.GroupsColumn, v,
				name+" table row "+strconv.Itoa(i)+" disagrees with row 0 about the grouping columns")
		}
	}

	columns := grouper.ParseGroups(first)
	if len(columns) == 0 {
		return nil, errors.NewValidationError(constants.GroupsColumn, first, name+" table names no grouping columns")
	}
	return columns, nil
}

// groupIndex maps each group id in a group table to its row index. Ids must
// be unique non-negative integers; anything else breaks the join.
func groupIndex(t *tables.Table, name string) (map[int]int, error) {
	index := make(map[int]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, err := grouper.GroupID(t.Row(i))
		if err != nil {
			return nil, errors.NewValidationError(constants.GroupIDColumn, i,
				name+" table row "+strconv.Itoa(i)+": "+err.Error())
		}
		if prev, dup := index[id]; dup {
			return nil, errors.NewValidationError(constants.GroupIDColumn, id,
				name+" table rows "+strconv.Itoa(prev)+" and "+strconv.Itoa(i)+" share group id "+strconv.Itoa(id))
		}
		index[id] = i
	}
	return index, nil
}

// checkPair verifies two group tables share a column schema. The editor may
// reorder columns but never add or remove them.
func checkPair(original, modified *tables.Table) error {
	missing := modified.MissingColumns(original.Columns()...)
	var extra []string
	for _, col := range modified.Columns() {
		if !original.HasColumn(col) {
			extra = append(extra, col)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return errors.NewSchemaMismatchError("grouped", "modified", missing, extra)
	}
	return nil
}

// diff joins the group table pair on group id and classifies every
// normalized cell difference. Orphaned group ids, present on only one side,
// are reported as reconciliation errors without aborting the remaining
// groups. Groups are visited in ascending id order and columns in the
// original group table's column order, so output is deterministic.
func diff(originalGroups, modifiedGroups *tables.Table, origIndex, modIndex map[int]int,
	groupingCols []string, identity map[string]bool, colKinds map[string]tables.Kind) (*Changeset, []error) {

	grouping := make(map[string]bool, len(groupingCols))
	for _, col := range groupingCols {
		grouping[col] = true
	}

	ids := make([]int, 0, len(origIndex)+len(modIndex))
	for id := range origIndex {
		ids = append(ids, id)
	}
	for id := range modIndex {
		if _, ok := origIndex[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	cs := &Changeset{}
	var anomalies []error

	for _, id := range ids {
		origRow, inOrig := origIndex[id]
		modRow, inMod := modIndex[id]
		switch {
		case !inMod:
			anomalies = append(anomalies, errors.NewReconciliationError(id, "group missing from the modified table"))
			cs.Summary.OrphanedGroups++
			continue
		case !inOrig:
			anomalies = append(anomalies, errors.NewReconciliationError(id, "group not present in the original grouped table"))
			cs.Summary.OrphanedGroups++
			continue
		}
		cs.Summary.GroupsCompared++

		for _, col := range originalGroups.Columns() {
			if col == constants.GroupIDColumn || col == constants.GroupsColumn {
				continue
			}
			origVal, _ := originalGroups.Cell(origRow, col)
			modVal, _ := modifiedGroups.Cell(modRow, col)
			origVal = tables.Normalize(origVal)
			modVal = tables.Normalize(modVal)
			cs.Summary.CellsCompared++
			if tables.EqualValues(origVal, modVal) {
				continue
			}

			change := Change{GroupID: id, Column: col, Original: origVal, Modified: modVal}
			switch {
			case identity[col]:
				cs.Identity = append(cs.Identity, change)
				cs.Summary.IdentityDropped++
			case grouping[col]:
				cs.Grouping = append(cs.Grouping, change)
				cs.Summary.GroupingDropped++
			default:
				if !tables.Compatible(colKinds[col], tables.KindOf(modVal)) {
					change.Flagged = true
					cs.Summary.Flagged++
				}
				cs.Accepted = append(cs.Accepted, change)
				cs.Summary.Accepted++
			}
		}
	}

	return cs, anomalies
}
