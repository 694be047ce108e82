package reconcile

import (
	"fmt"
	"time"

	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Success indicates the run completed without group-level anomalies
	Success bool

	// Table is the reconciled record table
	Table *tables.Table

	// Changeset contains every edit the diff detected, by disposition
	Changeset *Changeset

	// Log is the provenance record of every cell change applied
	Log *provenance.Log

	// LogPath is where the provenance log was written
	LogPath string

	// Errors contains group-level anomalies and write failures
	Errors []error

	// Warnings contains non-critical issues such as dropped identity edits
	Warnings []string

	// Metadata about the reconciliation run
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation run.
type ResultMetadata struct {
	// StartTime when reconciliation started
	StartTime time.Time

	// EndTime when reconciliation completed
	EndTime time.Time

	// Duration of the reconciliation
	Duration time.Duration

	// GroupingColumns the group tables were built from
	GroupingColumns []string

	// IdentityColumns protected from edit propagation
	IdentityColumns []string

	// Statistics about the reconciliation
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation run.
type ResultStatistics struct {
	// Scale of the diff
	GroupsCompared int
	CellsCompared  int

	// Scale of the propagation
	GroupsChanged int
	RowsUpdated   int
	CellsChanged  int

	// Anomaly counts
	FlaggedChanges int
	OrphanedGroups int

	// Performance metrics
	DiffTimeMs  int64
	ApplyTimeMs int64
	WriteTimeMs int64
	TotalTimeMs int64
}

// IsSuccess returns true if the reconciliation was successful.
func (r *Result) IsSuccess() bool {
	return r.Success && len(r.Errors) == 0
}

// HasErrors returns true if there were errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there were warnings.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasChanges returns true if any edit was accepted for propagation.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if !r.IsSuccess() {
		return fmt.Sprintf("Reconciliation failed with %d errors", len(r.Errors))
	}

	if !r.HasChanges() {
		return "Reconciliation completed. No edits detected."
	}

	return fmt.Sprintf("Reconciliation successful. %s; %d cells updated across %d rows.",
		r.Changeset.String(), r.Metadata.Stats.CellsChanged, r.Metadata.Stats.RowsUpdated)
}

// Report generates a detailed report of the reconciliation.
func (r *Result) Report() string {
	report := fmt.Sprintf(`
Reconciliation Report
=====================
Status: %s
Duration: %s
Grouping Columns: %v
Identity Columns: %v
Provenance Log: %s

`, r.statusString(), r.Metadata.Duration, r.Metadata.GroupingColumns, r.Metadata.IdentityColumns, r.logPathString())

	report += fmt.Sprintf(`Statistics:
-----------
Groups Compared: %d
Cells Compared: %d
Groups Changed: %d
Rows Updated: %d
Cells Changed: %d
Flagged Changes: %d
Orphaned Groups: %d

`, r.Metadata.Stats.GroupsCompared,
		r.Metadata.Stats.CellsCompared,
		r.Metadata.Stats.GroupsChanged,
		r.Metadata.Stats.RowsUpdated,
		r.Metadata.Stats.CellsChanged,
		r.Metadata.Stats.FlaggedChanges,
		r.Metadata.Stats.OrphanedGroups)

	report += fmt.Sprintf(`Performance:
------------
Diff Time: %dms
Apply Time: %dms
Write Time: %dms
Total Time: %dms

`, r.Metadata.Stats.DiffTimeMs,
		r.Metadata.Stats.ApplyTimeMs,
		r.Metadata.Stats.WriteTimeMs,
		r.Metadata.Stats.TotalTimeMs)

	if r.HasChanges() {
		report += fmt.Sprintf(`Edits Detected:
---------------
%s

`, r.Changeset.String())
	}

	if r.HasErrors() {
		report += fmt.Sprintf(`Errors (%d):
------------
`, len(r.Errors))
		for i, err := range r.Errors {
			report += fmt.Sprintf("%d. %v\n", i+1, err)
		}
		report += "\n"
	}

	if r.HasWarnings() {
		report += fmt.Sprintf(`Warnings (%d):
--------------
`, len(r.Warnings))
		for i, warning := range r.Warnings {
			report += fmt.Sprintf("%d. %s\n", i+1, warning)
		}
		report += "\n"
	}

	return report
}

// statusString returns a string representation of the status.
func (r *Result) statusString() string {
	if !r.IsSuccess() {
		return "❌ Failed"
	}
	if r.HasWarnings() {
		return "⚠️  Success with Warnings"
	}
	return "✅ Success"
}

// logPathString guards against an unwritten provenance log.
func (r *Result) logPathString() string {
	if r.LogPath == "" {
		return "(not written)"
	}
	return r.LogPath
}

// ResultBuilder helps construct Result objects.
type ResultBuilder struct {
	result *Result
}

// NewResultBuilder creates a new ResultBuilder.
func NewResultBuilder() *ResultBuilder {
	return &ResultBuilder{
		result: &Result{
			Success:  true,
			Errors:   []error{},
			Warnings: []string{},
			Metadata: ResultMetadata{
				StartTime: time.Now(),
			},
		},
	}
}

// WithTable sets the reconciled record table.
func (b *ResultBuilder) WithTable(t *tables.Table) *ResultBuilder {
	b.result.Table = t
	return b
}

// WithChangeset sets the detected edits.
func (b *ResultBuilder) WithChangeset(cs *Changeset) *ResultBuilder {
	b.result.Changeset = cs
	return b
}

// WithLog sets the provenance log.
func (b *ResultBuilder) WithLog(log *provenance.Log) *ResultBuilder {
	b.result.Log = log
	return b
}

// WithLogPath records where the provenance log was written.
func (b *ResultBuilder) WithLogPath(path string) *ResultBuilder {
	b.result.LogPath = path
	return b
}

// WithError adds an error.
func (b *ResultBuilder) WithError(err error) *ResultBuilder {
	if err != nil {
		b.result.Success = false
		b.result.Errors = append(b.result.Errors, err)
	}
	return b
}

// WithWarning adds a warning.
func (b *ResultBuilder) WithWarning(warning string) *ResultBuilder {
	b.result.Warnings = append(b.result.Warnings, warning)
	return b
}

// WithGroupingColumns records the grouping columns of the run.
func (b *ResultBuilder) WithGroupingColumns(columns ...string) *ResultBuilder {
	b.result.Metadata.GroupingColumns = columns
	return b
}

// WithIdentityColumns records the protected identity columns of the run.
func (b *ResultBuilder) WithIdentityColumns(columns ...string) *ResultBuilder {
	b.result.Metadata.IdentityColumns = columns
	return b
}

// WithStatistics sets the result statistics.
func (b *ResultBuilder) WithStatistics(stats ResultStatistics) *ResultBuilder {
	b.result.Metadata.Stats = stats
	return b
}

// Build finalizes and returns the Result.
func (b *ResultBuilder) Build() *Result {
	b.result.Metadata.EndTime = time.Now()
	b.result.Metadata.Duration = b.result.Metadata.EndTime.Sub(b.result.Metadata.StartTime)
	b.result.Metadata.Stats.TotalTimeMs = b.result.Metadata.Duration.Milliseconds()

	return b.result
}
