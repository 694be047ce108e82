package upload

import (
	"fmt"
	"time"

	"github.com/redlinedata/redline/pkg/validate"
)

// Result represents the outcome of an upload run.
type Result struct {
	// Success indicates the run completed without store failures
	Success bool

	// Changes contains every cell that differs between the two tables
	Changes []Change

	// Violations contains the rule violations that blocked the upload
	Violations []validate.Violation

	// Errors contains per-row store failures
	Errors []error

	// Warnings contains skipped columns and other non-critical issues
	Warnings []string

	// Metadata about the upload run
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the upload run.
type ResultMetadata struct {
	// StartTime when the upload started
	StartTime time.Time

	// EndTime when the upload completed
	EndTime time.Time

	// Duration of the upload
	Duration time.Duration

	// DryRun indicates the store was never called
	DryRun bool

	// Statistics about the upload
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the upload run.
type ResultStatistics struct {
	// Scale of the diff
	CellsChanged   int
	RowsChanged    int
	SkippedColumns int

	// Validation outcome
	Violations int

	// Store calls issued
	InfoUpdates           int
	ClassificationUpdates int
	AttributeUpdates      int

	// Row outcomes
	RowsUploaded int
	FailedRows   int

	// Performance metrics
	PlanTimeMs   int64
	UploadTimeMs int64
	TotalTimeMs  int64
}

// IsSuccess returns true if every change was validated and uploaded.
func (r *Result) IsSuccess() bool {
	return r.Success && len(r.Errors) == 0 && len(r.Violations) == 0
}

// HasErrors returns true if there were errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there were warnings.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasViolations returns true if validation blocked the upload.
func (r *Result) HasViolations() bool {
	return len(r.Violations) > 0
}

// HasChanges returns true if the tables differ at all.
func (r *Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if r.HasViolations() {
		return fmt.Sprintf("Upload blocked: %d changes break the validation rules.", len(r.Violations))
	}

	if !r.HasChanges() {
		return "Upload completed. No changes to apply."
	}

	if r.Metadata.DryRun {
		return fmt.Sprintf("Dry run. %d cells across %d rows would be uploaded.",
			r.Metadata.Stats.CellsChanged, r.Metadata.Stats.RowsChanged)
	}

	if !r.IsSuccess() {
		return fmt.Sprintf("Upload failed with %d errors", len(r.Errors))
	}

	return fmt.Sprintf("Upload successful. %d rows updated in the store.",
		r.Metadata.Stats.RowsUploaded)
}

// Report generates a detailed report of the upload.
func (r *Result) Report() string {
	report := fmt.Sprintf(`
Upload Report
=============
Status: %s
Duration: %s
Dry Run: %t

`, r.statusString(), r.Metadata.Duration, r.Metadata.DryRun)

	report += fmt.Sprintf(`Statistics:
-----------
Cells Changed: %d
Rows Changed: %d
Skipped Columns: %d
Violations: %d
Info Updates: %d
Classification Updates: %d
Attribute Updates: %d
Rows Uploaded: %d
Failed Rows: %d

`, r.Metadata.Stats.CellsChanged,
		r.Metadata.Stats.RowsChanged,
		r.Metadata.Stats.SkippedColumns,
		r.Metadata.Stats.Violations,
		r.Metadata.Stats.InfoUpdates,
		r.Metadata.Stats.ClassificationUpdates,
		r.Metadata.Stats.AttributeUpdates,
		r.Metadata.Stats.RowsUploaded,
		r.Metadata.Stats.FailedRows)

	report += fmt.Sprintf(`Performance:
------------
Plan Time: %dms
Upload Time: %dms
Total Time: %dms

`, r.Metadata.Stats.PlanTimeMs,
		r.Metadata.Stats.UploadTimeMs,
		r.Metadata.Stats.TotalTimeMs)

	if r.HasChanges() {
		report += fmt.Sprintf(`Changes (%d):
-------------
`, len(r.Changes))
		for _, change := range r.Changes {
			report += change.String() + "\n"
		}
		report += "\n"
	}

	if r.HasViolations() {
		report += fmt.Sprintf(`Violations (%d):
----------------
`, len(r.Violations))
		for _, violation := range r.Violations {
			report += violation.String() + "\n"
		}
		report += "\n"
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

// WithChanges sets the detected changes.
func (b *ResultBuilder) WithChanges(changes []Change) *ResultBuilder {
	b.result.Changes = changes
	return b
}

// WithViolations records the rule violations that blocked the upload.
func (b *ResultBuilder) WithViolations(violations []validate.Violation) *ResultBuilder {
	b.result.Violations = violations
	if len(violations) > 0 {
		b.result.Success = false
	}
	return b
}

// WithDryRun records whether the store was called.
func (b *ResultBuilder) WithDryRun(dryRun bool) *ResultBuilder {
	b.result.Metadata.DryRun = dryRun
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
