package upload

import (
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/validate"
)

// WithChecker replaces the validation checker applied to changed cells.
func WithChecker(checker validate.Checker) Option {
	return func(u *uploader) error {
		if checker == nil {
			return errors.NewValidationError("checker", nil, "checker cannot be nil")
		}
		u.checker = checker
		return nil
	}
}

// WithRules builds the validation checker from the given rule set.
func WithRules(rules *validate.Rules) Option {
	return func(u *uploader) error {
		checker, err := validate.New(validate.WithRules(rules))
		if err != nil {
			return err
		}
		u.checker = checker
		return nil
	}
}

// WithDryRun plans and validates the upload but never calls the store.
func WithDryRun(enabled bool) Option {
	return func(u *uploader) error {
		u.dryRun = enabled
		return nil
	}
}

// WithProgress registers a callback invoked after each row has been pushed
// to the store. The callback receives the number of rows processed so far
// and the total.
func WithProgress(fn grouper.Progress) Option {
	return func(u *uploader) error {
		if fn == nil {
			return errors.NewValidationError("progress", nil, "progress callback cannot be nil")
		}
		u.progress = fn
		return nil
	}
}
