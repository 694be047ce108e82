// Package reconcile expands edits made on a deduplicated group table back
// across every member row of the original record table.
//
// The reconciler joins the original and modified group tables on group id,
// never on row position, diffs each pair of representative rows cell by
// cell, and propagates every accepted edit to the member rows of the
// original table. Membership is re-derived from grouping column values on
// each run, so the original table may have been reloaded in a different row
// order since it was grouped. Every applied cell change is recorded in a
// provenance log that is written to disk before Reconcile returns.
//
// Schema and shape problems are fatal and return an error with no result.
// Group-level anomalies, such as a group id present on only one side of the
// join, are collected on the Result and leave the remaining groups
// reconciled; IsSuccess reports false so the caller can decide whether the
// partial outcome is usable.
package reconcile

import (
	"context"
	"time"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
)

// Reconciler applies group table edits back onto a record table.
type Reconciler interface {
	// Reconcile diffs the group table pair and propagates accepted edits to
	// every member row of original. The returned result carries the
	// reconciled table, the provenance log and the path it was written to,
	// and any per-group anomalies.
	Reconcile(ctx context.Context, original, originalGroups, modifiedGroups *tables.Table) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	identity      []string
	progress      grouper.Progress
	provenanceDir string
}

// Option configures a Reconciler.
type Option func(*reconciler) error

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		identity:      []string{constants.DefaultIdentityColumn},
		provenanceDir: constants.DefaultProvenanceDir,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Reconcile diffs the group table pair and propagates accepted edits to
// every member row of original.
func (r *reconciler) Reconcile(ctx context.Context, original, originalGroups, modifiedGroups *tables.Table) (*Result, error) {
	if original == nil || originalGroups == nil || modifiedGroups == nil {
		return nil, errors.NewValidationError("tables", nil, "all three tables are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groupingCols, origIndex, modIndex, err := r.check(original, originalGroups, modifiedGroups)
	if err != nil {
		return nil, err
	}

	identity := make(map[string]bool, len(r.identity))
	for _, col := range r.identity {
		identity[col] = true
	}
	colKinds := make(map[string]tables.Kind)
	for _, col := range originalGroups.Columns() {
		if col == constants.GroupIDColumn || col == constants.GroupsColumn {
			continue
		}
		colKinds[col] = original.ColumnKind(col)
	}

	builder := NewResultBuilder().
		WithGroupingColumns(groupingCols...).
		WithIdentityColumns(r.identity...)

	diffStart := time.Now()
	cs, anomalies := diff(originalGroups, modifiedGroups, origIndex, modIndex, groupingCols, identity, colKinds)
	diffMs := time.Since(diffStart).Milliseconds()

	for _, err := range anomalies {
		builder.WithError(err)
	}
	for _, ch := range cs.Identity {
		builder.WithWarning(errors.NewIdentityViolationError(ch.Column, ch.GroupID, ch.Original, ch.Modified).Error())
	}
	for _, ch := range cs.Grouping {
		builder.WithWarning((&errors.ReconciliationError{
			GroupID: ch.GroupID,
			Message: "grouping column " + ch.Column + " was edited; the edit is dropped because it would detach the group from its member rows",
		}).Error())
	}
	for _, ch := range cs.Accepted {
		if ch.Flagged {
			builder.WithWarning(errors.NewCoercionWarning(ch.Column, ch.GroupID, ch.Modified,
				colKinds[ch.Column].String(), tables.KindOf(ch.Modified).String()).Error())
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	applyStart := time.Now()
	out := original.Clone()
	log := provenance.New(groupingCols...)
	stats := r.propagate(out, originalGroups, origIndex, groupingCols, cs, log, builder)
	stats.DiffTimeMs = diffMs
	stats.ApplyTimeMs = time.Since(applyStart).Milliseconds()
	stats.GroupsCompared = cs.Summary.GroupsCompared
	stats.CellsCompared = cs.Summary.CellsCompared
	stats.FlaggedChanges = cs.Summary.Flagged
	stats.OrphanedGroups = cs.Summary.OrphanedGroups

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The provenance log is written even when empty. A header-only file is
	// the positive record that a run completed with nothing to change.
	writeStart := time.Now()
	path, err := log.WriteFile(r.provenanceDir)
	if err != nil {
		builder.WithError(err)
	}
	stats.WriteTimeMs = time.Since(writeStart).Milliseconds()

	return builder.
		WithTable(out).
		WithChangeset(cs).
		WithLog(log).
		WithLogPath(path).
		WithStatistics(stats).
		Build(), nil
}

// check validates the shape of the three tables before any diffing starts.
// Violations here are fatal: the join cannot be trusted, so no partial
// output is produced.
func (r *reconciler) check(original, originalGroups, modifiedGroups *tables.Table) ([]string, map[int]int, map[int]int, error) {
	groupingCols, err := groupingColumns(originalGroups, "grouped")
	if err != nil {
		return nil, nil, nil, err
	}
	modCols, err := groupingColumns(modifiedGroups, "modified")
	if err != nil {
		return nil, nil, nil, err
	}
	if grouper.JoinColumns(groupingCols) != grouper.JoinColumns(modCols) {
		return nil, nil, nil, &errors.SchemaMismatchError{
			Left:    "grouped",
			Right:   "modified",
			Message: "the two group tables were produced by different grouping runs",
		}
	}

	if err := checkPair(originalGroups, modifiedGroups); err != nil {
		return nil, nil, nil, err
	}

	// Every non-bookkeeping column of the group table must exist in the
	// record table, or propagation would have nowhere to write.
	var diffable []string
	for _, col := range originalGroups.Columns() {
		if col == constants.GroupIDColumn || col == constants.GroupsColumn {
			continue
		}
		diffable = append(diffable, col)
	}
	if missing := original.MissingColumns(diffable...); len(missing) > 0 {
		return nil, nil, nil, errors.NewSchemaMismatchError("grouped", "original", missing, nil)
	}
	if original.HasColumn(constants.GroupIDColumn) || original.HasColumn(constants.GroupsColumn) {
		return nil, nil, nil, errors.NewValidationError("original", nil,
			"the original table already carries group bookkeeping columns; pass the ungrouped record table")
	}

	origIndex, err := groupIndex(originalGroups, "grouped")
	if err != nil {
		return nil, nil, nil, err
	}
	modIndex, err := groupIndex(modifiedGroups, "modified")
	if err != nil {
		return nil, nil, nil, err
	}
	return groupingCols, origIndex, modIndex, nil
}

// propagate applies every accepted change to the member rows of out,
// recording one provenance entry per cell actually changed. Membership is
// derived once per group from the original representative's grouping column
// values.
func (r *reconciler) propagate(out, originalGroups *tables.Table, origIndex map[int]int,
	groupingCols []string, cs *Changeset, log *provenance.Log, builder *ResultBuilder) ResultStatistics {

	var stats ResultStatistics
	members := make(map[int][]int, len(origIndex))
	rowsTouched := make(map[int]bool)
	claimed := make(map[int]bool)

	total := len(cs.Accepted)
	for i, ch := range cs.Accepted {
		rows, cached := members[ch.GroupID]
		if !cached {
			rep := originalGroups.Row(origIndex[ch.GroupID])
			rows = grouper.Membership(out, rep, groupingCols)
			members[ch.GroupID] = rows
			if len(rows) == 0 {
				builder.WithError(errors.NewReconciliationError(ch.GroupID,
					"no rows in the record table match this group's values; its edits cannot be propagated"))
			}
		}
		if !claimed[ch.GroupID] {
			claimed[ch.GroupID] = true
			stats.GroupsChanged++
		}

		for _, row := range rows {
			current, _ := out.Cell(row, ch.Column)
			if tables.EqualValues(current, ch.Modified) {
				continue
			}
			if err := out.SetCell(row, ch.Column, ch.Modified); err != nil {
				builder.WithError(err)
				continue
			}
			log.Append(provenance.Entry{
				GroupID:  ch.GroupID,
				Row:      row,
				Column:   ch.Column,
				Original: tables.Normalize(current),
				Modified: ch.Modified,
				Flagged:  ch.Flagged,
			})
			stats.CellsChanged++
			rowsTouched[row] = true
		}

		if r.progress != nil {
			r.progress(i+1, total)
		}
	}

	stats.RowsUpdated = len(rowsTouched)
	return stats
}
