package reconcile

import (
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
)

// WithIdentityColumns replaces the set of protected identity columns. Edits
// to these columns are never propagated. Calling with no arguments disables
// identity protection, for tables that carry no store identifiers.
func WithIdentityColumns(columns ...string) Option {
	return func(r *reconciler) error {
		for _, col := range columns {
			if col == "" {
				return errors.NewValidationError("identity", columns, "identity column names cannot be empty")
			}
		}
		r.identity = columns
		return nil
	}
}

// WithProgress registers a callback invoked after each accepted edit has
// been propagated. The callback receives the number of edits processed so
// far and the total.
func WithProgress(fn grouper.Progress) Option {
	return func(r *reconciler) error {
		if fn == nil {
			return errors.NewValidationError("progress", nil, "progress callback cannot be nil")
		}
		r.progress = fn
		return nil
	}
}

// WithProvenanceDir sets the directory the provenance log is written to.
func WithProvenanceDir(dir string) Option {
	return func(r *reconciler) error {
		if dir == "" {
			return errors.NewValidationError("provenanceDir", dir, "provenance directory cannot be empty")
		}
		r.provenanceDir = dir
		return nil
	}
}
