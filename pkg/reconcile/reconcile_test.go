package reconcile_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/reconcile"
	"github.com/redlinedata/redline/pkg/tables"
)

// createRecordTable builds five acquisitions in two type groups: anat holds
// rows 0, 2 and 3, func holds rows 1 and 4.
func createRecordTable(t testing.TB) *tables.Table {
	t.Helper()
	tbl, err := tables.New("acquisition.id", "acquisition.label", "acquisition.type", "subject.age")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rows := [][]string{
		{"a1", "X", "anat", "34"},
		{"a2", "X", "func", "34"},
		{"a3", "X", "anat", "29"},
		{"a4", "X", "anat", ""},
		{"a5", "X", "func", "41"},
	}
	for _, row := range rows {
		if err := tbl.AppendValues(row...); err != nil {
			t.Fatalf("AppendValues(%v) error = %v", row, err)
		}
	}
	return tbl
}

// createGroupTable runs the grouper over tbl by acquisition.type.
func createGroupTable(t testing.TB, tbl *tables.Table) *tables.Table {
	t.Helper()
	g, err := grouper.New()
	if err != nil {
		t.Fatalf("grouper.New() error = %v", err)
	}
	grouped, err := g.Group(tbl, []string{"acquisition.type"})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	return grouped
}

// groupRow finds the row index holding the given group id.
func groupRow(t testing.TB, tbl *tables.Table, id int) int {
	t.Helper()
	for i := 0; i < tbl.Len(); i++ {
		got, err := grouper.GroupID(tbl.Row(i))
		if err != nil {
			t.Fatalf("GroupID(row %d) error = %v", i, err)
		}
		if got == id {
			return i
		}
	}
	t.Fatalf("no row with group id %d", id)
	return -1
}

// setGroupCell edits one cell on the row carrying the given group id.
func setGroupCell(t testing.TB, tbl *tables.Table, id int, column, value string) {
	t.Helper()
	if err := tbl.SetCell(groupRow(t, tbl, id), column, value); err != nil {
		t.Fatalf("SetCell(group %d, %s) error = %v", id, column, err)
	}
}

func newReconciler(t testing.TB, opts ...reconcile.Option) reconcile.Reconciler {
	t.Helper()
	opts = append([]reconcile.Option{reconcile.WithProvenanceDir(t.TempDir())}, opts...)
	r, err := reconcile.New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestReconcileLabelEdit(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 1, "acquisition.label", "Y")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}

	// One edit to a two-member group yields one provenance entry per row.
	if result.Log.Len() != 2 {
		t.Fatalf("Log.Len() = %d, want 2", result.Log.Len())
	}
	gotRows := map[int]bool{}
	for _, e := range result.Log.Entries() {
		if e.Column != "acquisition.label" || e.Original != "X" || e.Modified != "Y" {
			t.Errorf("entry = %+v, want acquisition.label X -> Y", e)
		}
		if e.GroupID != 1 {
			t.Errorf("entry GroupID = %d, want 1", e.GroupID)
		}
		gotRows[e.Row] = true
	}
	if !gotRows[1] || !gotRows[4] {
		t.Errorf("provenance rows = %v, want rows 1 and 4", gotRows)
	}

	// Both func rows updated, all anat rows untouched.
	for _, row := range []int{1, 4} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "Y" {
			t.Errorf("row %d label = %q, want Y", row, got)
		}
	}
	for _, row := range []int{0, 2, 3} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "X" {
			t.Errorf("row %d label = %q, want X", row, got)
		}
	}

	stats := result.Metadata.Stats
	if stats.CellsChanged != 2 || stats.RowsUpdated != 2 || stats.GroupsChanged != 1 {
		t.Errorf("stats = %+v, want 2 cells, 2 rows, 1 group", stats)
	}

	// The log is durable and replayable.
	if result.LogPath == "" {
		t.Fatal("LogPath is empty")
	}
	loaded, err := provenance.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("ReadFile(%q) error = %v", result.LogPath, err)
	}
	if loaded.Len() != 2 {
		t.Errorf("loaded Len() = %d, want 2", loaded.Len())
	}
}

func TestReconcileNoEdits(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}
	if result.HasChanges() {
		t.Errorf("HasChanges() = true for identical tables")
	}
	if !result.Log.IsEmpty() {
		t.Errorf("Log has %d entries, want 0", result.Log.Len())
	}

	// Every cell is identical to the input.
	for i := 0; i < original.Len(); i++ {
		for _, col := range original.Columns() {
			want, _ := original.Cell(i, col)
			got, _ := result.Table.Cell(i, col)
			if got != want {
				t.Errorf("cell (%d, %s) = %q, want %q", i, col, got, want)
			}
		}
	}

	// The provenance file is written even when nothing changed.
	if result.LogPath == "" {
		t.Fatal("LogPath is empty")
	}
	data, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("ReadFile(%q) error = %v", result.LogPath, err)
	}
	if string(data) != "original,modified,row,column\n" {
		t.Errorf("provenance file = %q, want header only", data)
	}
}

func TestReconcileModifiedRowsReordered(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)

	// Rebuild the modified table with its rows reversed; group id is the
	// only join key, so the outcome must not change.
	modified, err := tables.New(grouped.Columns()...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := grouped.Len() - 1; i >= 0; i-- {
		if err := modified.AppendValues(grouped.Values(i)...); err != nil {
			t.Fatalf("AppendValues() error = %v", err)
		}
	}
	setGroupCell(t, modified, 1, "acquisition.label", "Y")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}
	if result.Log.Len() != 2 {
		t.Fatalf("Log.Len() = %d, want 2", result.Log.Len())
	}
	for _, row := range []int{1, 4} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "Y" {
			t.Errorf("row %d label = %q, want Y", row, got)
		}
	}
}

func TestReconcileOriginalReloadedReordered(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 1, "acquisition.label", "Y")

	// The record table was reloaded between grouping and reconciling, in
	// reverse row order. Membership is derived from values, not positions.
	reloaded, err := tables.New(original.Columns()...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := original.Len() - 1; i >= 0; i-- {
		if err := reloaded.AppendValues(original.Values(i)...); err != nil {
			t.Fatalf("AppendValues() error = %v", err)
		}
	}

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), reloaded, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}

	// func rows now sit at positions 0 and 3 of the reloaded table.
	for _, row := range []int{0, 3} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "Y" {
			t.Errorf("reloaded row %d label = %q, want Y", row, got)
		}
		if got, _ := result.Table.Cell(row, "acquisition.type"); got != "func" {
			t.Errorf("reloaded row %d type = %q, want func", row, got)
		}
	}
	for _, row := range []int{1, 2, 4} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "X" {
			t.Errorf("reloaded row %d label = %q, want X", row, got)
		}
	}
}

func TestReconcileIdentityProtection(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 0, "acquisition.id", "hijacked")

	r := newReconciler(t, reconcile.WithIdentityColumns("acquisition.id"))
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Identity edits are dropped with a warning, not an error.
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}
	if !result.Log.IsEmpty() {
		t.Errorf("Log has %d entries, want 0", result.Log.Len())
	}
	if len(result.Changeset.Identity) != 1 {
		t.Fatalf("Changeset.Identity has %d entries, want 1", len(result.Changeset.Identity))
	}
	if !result.HasWarnings() {
		t.Fatal("expected a warning for the dropped identity edit")
	}
	if !strings.Contains(result.Warnings[0], "acquisition.id") {
		t.Errorf("warning = %q, want mention of acquisition.id", result.Warnings[0])
	}
	if got, _ := result.Table.Cell(0, "acquisition.id"); got != "a1" {
		t.Errorf("row 0 id = %q, want a1 untouched", got)
	}
}

func TestReconcileGroupingEditDropped(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 0, "acquisition.type", "dwi")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}
	if !result.Log.IsEmpty() {
		t.Errorf("Log has %d entries, want 0", result.Log.Len())
	}
	if len(result.Changeset.Grouping) != 1 {
		t.Fatalf("Changeset.Grouping has %d entries, want 1", len(result.Changeset.Grouping))
	}
	if !result.HasWarnings() {
		t.Fatal("expected a warning for the dropped grouping edit")
	}
	for _, row := range []int{0, 2, 3} {
		if got, _ := result.Table.Cell(row, "acquisition.type"); got != "anat" {
			t.Errorf("row %d type = %q, want anat untouched", row, got)
		}
	}
}

func TestReconcileOrphanedGroup(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()

	// Renumbering group 1 to 5 orphans both sides of the join. An edit on
	// the intact group 0 must still propagate.
	setGroupCell(t, modified, 1, "group_id", "5")
	setGroupCell(t, modified, 0, "acquisition.label", "Z")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("IsSuccess() = true despite orphaned groups")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 orphan errors", result.Errors)
	}
	for _, err := range result.Errors {
		if !errors.IsReconciliationError(err) {
			t.Errorf("error %v is not a reconciliation error", err)
		}
	}
	if result.Metadata.Stats.OrphanedGroups != 2 {
		t.Errorf("OrphanedGroups = %d, want 2", result.Metadata.Stats.OrphanedGroups)
	}

	for _, row := range []int{0, 2, 3} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "Z" {
			t.Errorf("row %d label = %q, want Z", row, got)
		}
	}
	for _, row := range []int{1, 4} {
		if got, _ := result.Table.Cell(row, "acquisition.label"); got != "X" {
			t.Errorf("row %d label = %q, want X untouched", row, got)
		}
	}
}

func TestReconcileSchemaMismatch(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)

	t.Run("extra column", func(t *testing.T) {
		modified, err := grouped.WithColumns("notes")
		if err != nil {
			t.Fatalf("WithColumns() error = %v", err)
		}
		for i := 0; i < grouped.Len(); i++ {
			rec := grouped.Row(i).Clone()
			rec["notes"] = "added"
			if err := modified.Append(rec); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		r := newReconciler(t)
		result, err := r.Reconcile(context.Background(), original, grouped, modified)
		if result != nil {
			t.Error("Reconcile() returned a result despite a schema mismatch")
		}
		if !errors.IsSchemaMismatch(err) {
			t.Errorf("error = %v, want schema mismatch", err)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		var kept []string
		for _, col := range grouped.Columns() {
			if col != "subject.age" {
				kept = append(kept, col)
			}
		}
		modified, err := tables.New(kept...)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		for i := 0; i < grouped.Len(); i++ {
			rec := tables.Record{}
			for _, col := range kept {
				v, _ := grouped.Cell(i, col)
				rec[col] = v
			}
			if err := modified.Append(rec); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		r := newReconciler(t)
		result, err := r.Reconcile(context.Background(), original, grouped, modified)
		if result != nil {
			t.Error("Reconcile() returned a result despite a schema mismatch")
		}
		if !errors.IsSchemaMismatch(err) {
			t.Errorf("error = %v, want schema mismatch", err)
		}
	})

	t.Run("duplicate group id", func(t *testing.T) {
		modified := grouped.Clone()
		setGroupCell(t, modified, 1, "group_id", "0")

		r := newReconciler(t)
		if _, err := r.Reconcile(context.Background(), original, grouped, modified); !errors.IsValidationError(err) {
			t.Errorf("error = %v, want validation error for duplicate group id", err)
		}
	})

	t.Run("grouping runs disagree", func(t *testing.T) {
		modified := grouped.Clone()
		for i := 0; i < modified.Len(); i++ {
			if err := modified.SetCell(i, "groups", "acquisition.label"); err != nil {
				t.Fatalf("SetCell() error = %v", err)
			}
		}

		r := newReconciler(t)
		if _, err := r.Reconcile(context.Background(), original, grouped, modified); !errors.IsSchemaMismatch(err) {
			t.Errorf("error = %v, want schema mismatch for differing grouping runs", err)
		}
	})
}

func TestReconcileCoercionFlagged(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 0, "subject.age", "unknown")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// The edit propagates but is flagged for the validator.
	if !result.IsSuccess() {
		t.Fatalf("IsSuccess() = false, errors = %v", result.Errors)
	}
	if result.Metadata.Stats.FlaggedChanges != 1 {
		t.Errorf("FlaggedChanges = %d, want 1", result.Metadata.Stats.FlaggedChanges)
	}
	if !result.HasWarnings() {
		t.Fatal("expected a coercion warning")
	}
	for _, e := range result.Log.Entries() {
		if !e.Flagged {
			t.Errorf("entry %+v not flagged", e)
		}
	}
	for _, row := range []int{0, 2} {
		if got, _ := result.Table.Cell(row, "subject.age"); got != "unknown" {
			t.Errorf("row %d age = %q, want unknown", row, got)
		}
	}
}

func TestReconcileNullSpellingsEqual(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)

	// A cell that is empty in one table and NA in the other is not an edit.
	setGroupCell(t, grouped, 0, "acquisition.label", "")
	modified := grouped.Clone()
	setGroupCell(t, modified, 0, "acquisition.label", "NA")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.HasChanges() {
		t.Errorf("HasChanges() = true, null spellings diffed as an edit: %v", result.Changeset.Accepted)
	}
}

func TestReconcileSecondRunIsEmpty(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 1, "acquisition.label", "Y")

	r := newReconciler(t)
	first, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if first.Log.Len() != 2 {
		t.Fatalf("first Log.Len() = %d, want 2", first.Log.Len())
	}

	// Re-grouping the reconciled table and applying the same edits again
	// finds nothing left to change.
	regrouped := createGroupTable(t, first.Table)
	second, err := r.Reconcile(context.Background(), first.Table, regrouped, modified)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if !second.Log.IsEmpty() {
		t.Errorf("second Log.Len() = %d, want 0", second.Log.Len())
	}
	if second.HasChanges() {
		t.Errorf("second run detected edits: %v", second.Changeset.Accepted)
	}
}

func TestReconcileProgress(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 0, "acquisition.label", "A")
	setGroupCell(t, modified, 1, "acquisition.label", "B")

	var calls []int
	r := newReconciler(t, reconcile.WithProgress(func(done, total int) {
		if total != 2 {
			t.Errorf("progress total = %d, want 2", total)
		}
		calls = append(calls, done)
	}))
	if _, err := r.Reconcile(context.Background(), original, grouped, modified); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(calls) != 2 || calls[len(calls)-1] != 2 {
		t.Errorf("progress calls = %v, want [1 2]", calls)
	}
}

func TestReconcileContextCanceled(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newReconciler(t)
	if _, err := r.Reconcile(ctx, original, grouped, grouped.Clone()); err == nil {
		t.Error("Reconcile() with canceled context succeeded")
	}
}

func TestNewOptionErrors(t *testing.T) {
	if _, err := reconcile.New(reconcile.WithProgress(nil)); err == nil {
		t.Error("New() accepted a nil progress callback")
	}
	if _, err := reconcile.New(reconcile.WithProvenanceDir("")); err == nil {
		t.Error("New() accepted an empty provenance directory")
	}
	if _, err := reconcile.New(reconcile.WithIdentityColumns("")); err == nil {
		t.Error("New() accepted an empty identity column name")
	}
}

func TestResultSummaryAndReport(t *testing.T) {
	original := createRecordTable(t)
	grouped := createGroupTable(t, original)
	modified := grouped.Clone()
	setGroupCell(t, modified, 1, "acquisition.label", "Y")

	r := newReconciler(t)
	result, err := r.Reconcile(context.Background(), original, grouped, modified)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	summary := result.Summary()
	if !strings.Contains(summary, "successful") {
		t.Errorf("Summary() = %q", summary)
	}
	report := result.Report()
	for _, want := range []string{"Reconciliation Report", "Cells Changed: 2", "Rows Updated: 2", result.LogPath} {
		if !strings.Contains(report, want) {
			t.Errorf("Report() missing %q", want)
		}
	}
}

func BenchmarkReconcile(b *testing.B) {
	tbl, err := tables.New("acquisition.id", "acquisition.label", "acquisition.type")
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	for i := 0; i < 5000; i++ {
		row := []string{"a" + strconv.Itoa(i), "X", "type-" + strconv.Itoa(i%50)}
		if err := tbl.AppendValues(row...); err != nil {
			b.Fatalf("AppendValues() error = %v", err)
		}
	}
	grouped := createGroupTable(b, tbl)
	modified := grouped.Clone()
	for i := 0; i < modified.Len(); i++ {
		if err := modified.SetCell(i, "acquisition.label", "Y"); err != nil {
			b.Fatalf("SetCell() error = %v", err)
		}
	}

	r := newReconciler(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Reconcile(context.Background(), tbl, grouped, modified); err != nil {
			b.Fatalf("Reconcile() error = %v", err)
		}
	}
}
