// Package upload commits reconciled edits back to the remote store.
//
// The uploader re-diffs the original record table against the reconciled one,
// joined row by row on the identity column, and validates every changed cell
// before touching the store. A single validation violation blocks the whole
// upload. Valid changes are grouped per row, routed by column shape
// (info_* paths rebuild the nested info payload, classification_* columns
// carry comma-joined axis lists, bare file attributes update the file record
// itself), and applied with the file resolved through the row's type column.
// Store failures are collected per row and do not stop the remaining rows.
package upload

import (
	"context"
	"time"

	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/logging"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
	"github.com/redlinedata/redline/pkg/validate"
)

// Uploader pushes accepted edits from a reconciled table to the remote store.
type Uploader interface {
	// Upload re-diffs the original table against the reconciled one and
	// applies every valid change to the store. The returned Result reports
	// per-row failures; the error return is reserved for inputs that cannot
	// be diffed at all.
	Upload(ctx context.Context, original, reconciled *tables.Table) (*Result, error)

	// UploadLog replays a provenance log onto the original table and uploads
	// the resulting changes.
	UploadLog(ctx context.Context, original *tables.Table, log *provenance.Log) (*Result, error)
}

// uploader implements the Uploader interface.
type uploader struct {
	store    store.Client
	checker  validate.Checker
	dryRun   bool
	progress grouper.Progress
}

// Option configures an uploader.
type Option func(*uploader) error

// New creates a new Uploader backed by the given store client. Changes are
// checked against the default validation rules unless WithChecker or
// WithRules overrides them.
func New(client store.Client, opts ...Option) (Uploader, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", nil, "a store client is required")
	}

	u := &uploader{store: client}
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}

	if u.checker == nil {
		checker, err := validate.New()
		if err != nil {
			return nil, err
		}
		u.checker = checker
	}
	return u, nil
}

// Upload re-diffs the two tables and applies every valid change to the store.
func (u *uploader) Upload(ctx context.Context, original, reconciled *tables.Table) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	planStart := time.Now()
	p, err := plan(original, reconciled)
	if err != nil {
		return nil, err
	}

	builder := NewResultBuilder().
		WithChanges(p.changes).
		WithDryRun(u.dryRun)
	for _, warning := range p.warnings {
		builder.WithWarning(warning)
	}

	stats := ResultStatistics{
		CellsChanged:   len(p.changes),
		RowsChanged:    len(p.updates),
		SkippedColumns: p.skipped,
		PlanTimeMs:     time.Since(planStart).Milliseconds(),
	}

	violations := u.check(p.changes)
	stats.Violations = len(violations)
	if len(violations) > 0 {
		logging.Warn().
			Int("violations", len(violations)).
			Msg("upload blocked by validation")
		return builder.
			WithViolations(violations).
			WithStatistics(stats).
			Build(), nil
	}

	if len(p.updates) == 0 {
		logging.Info().Msg("no changes to upload")
		return builder.WithStatistics(stats).Build(), nil
	}

	if u.dryRun {
		for _, change := range p.changes {
			logging.Info().
				Int("row", change.Row).
				Str("acquisition", change.AcquisitionID).
				Str("column", change.Column).
				Str("value", change.Modified).
				Msg("dry run: planned update")
		}
		return builder.WithStatistics(stats).Build(), nil
	}

	uploadStart := time.Now()
	for i, update := range p.updates {
		if err := ctx.Err(); err != nil {
			builder.WithError(err)
			break
		}

		if err := u.apply(ctx, update, &stats); err != nil {
			stats.FailedRows++
			builder.WithError(errors.WrapResource("update", "acquisition", update.acquisitionID, err))
		} else {
			stats.RowsUploaded++
		}

		if u.progress != nil {
			u.progress(i+1, len(p.updates))
		}
	}
	stats.UploadTimeMs = time.Since(uploadStart).Milliseconds()

	logging.Info().
		Int("rows", stats.RowsUploaded).
		Int("failed", stats.FailedRows).
		Bool("dry_run", false).
		Msg("upload complete")

	return builder.WithStatistics(stats).Build(), nil
}

// UploadLog replays a provenance log onto the original table and uploads the
// resulting changes.
func (u *uploader) UploadLog(ctx context.Context, original *tables.Table, log *provenance.Log) (*Result, error) {
	if original == nil {
		return nil, errors.NewValidationError("original", nil, "original table is required")
	}
	if log == nil {
		return nil, errors.NewValidationError("log", nil, "provenance log is required")
	}

	reconciled := original.Clone()
	if _, err := log.Apply(reconciled); err != nil {
		return nil, err
	}
	return u.Upload(ctx, original, reconciled)
}

// check validates every changed cell against the configured rules.
func (u *uploader) check(changes []Change) []validate.Violation {
	var violations []validate.Violation
	for _, change := range changes {
		err := u.checker.Check(change.Column, change.Modified)
		if err == nil {
			continue
		}

		message := err.Error()
		var verr *errors.ValidationError
		if errors.As(err, &verr) {
			message = verr.Message
		}
		violations = append(violations, validate.Violation{
			Row:     change.Row,
			Column:  change.Column,
			Value:   change.Modified,
			Message: message,
		})
	}
	return violations
}

// apply pushes one row's routed payloads to the store. The target file is
// resolved by fetching the acquisition and matching on the row's original
// type value.
func (u *uploader) apply(ctx context.Context, update rowUpdate, stats *ResultStatistics) error {
	acquisition, err := u.store.Acquisition(ctx, update.acquisitionID)
	if err != nil {
		return err
	}

	var file *store.File
	for i := range acquisition.Files {
		if acquisition.Files[i].Type == update.fileType {
			file = &acquisition.Files[i]
			break
		}
	}
	if file == nil {
		return errors.NewNotFoundError("file of type "+update.fileType, update.acquisitionID)
	}

	if len(update.info) > 0 {
		if err := u.store.UpdateFileInfo(ctx, acquisition.ID, file.Name, update.info); err != nil {
			return err
		}
		stats.InfoUpdates++
	}
	if len(update.classification) > 0 {
		if err := u.store.UpdateFileClassification(ctx, acquisition.ID, file.Name, update.classification); err != nil {
			return err
		}
		stats.ClassificationUpdates++
	}
	if len(update.attrs) > 0 {
		if err := u.store.UpdateFile(ctx, acquisition.ID, file.Name, update.attrs); err != nil {
			return err
		}
		stats.AttributeUpdates++
	}
	return nil
}
