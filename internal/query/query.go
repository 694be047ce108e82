// Package query walks a project's hierarchy in the remote store and
// flattens it into a record table, one row per acquisition file. Hierarchy
// attributes become dotted columns such as acquisition.label; nested file
// metadata becomes underscored columns such as classification_Measurement
// and info_BIDS_valid, the shape the upload layer folds back into nested
// update payloads.
package query

import (
	"context"

	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/logging"
	"github.com/redlinedata/redline/pkg/tables"
)

// Querier reads a project's records out of the store.
type Querier interface {
	// Project flattens the whole hierarchy under the project with the
	// given label into a record table.
	Project(ctx context.Context, label string) (*tables.Table, error)
}

// querier is the default implementation of Querier.
type querier struct {
	store    store.Client
	progress grouper.Progress
}

// Option configures a Querier.
type Option func(*querier) error

// New creates a Querier backed by the given store client.
func New(client store.Client, opts ...Option) (Querier, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", nil, "store client is required")
	}

	q := &querier{store: client}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// WithProgress registers a callback invoked after each subject has been
// walked.
func WithProgress(fn grouper.Progress) Option {
	return func(q *querier) error {
		if fn == nil {
			return errors.NewValidationError("progress", nil, "progress callback cannot be nil")
		}
		q.progress = fn
		return nil
	}
}

// Project flattens the whole hierarchy under the project with the given
// label into a record table. Rows follow store order: subjects as listed,
// their sessions, their acquisitions, one row per file. An acquisition
// without files still yields one row so it stays editable.
func (q *querier) Project(ctx context.Context, label string) (*tables.Table, error) {
	project, err := q.store.LookupProject(ctx, label)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("project", project.Label).
		Str("id", project.ID).
		Msg("querying project hierarchy")

	subjects, err := q.store.Subjects(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	var records []tables.Record
	for i, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sessions, err := q.store.Sessions(ctx, subject.ID)
		if err != nil {
			return nil, err
		}
		for s := range sessions {
			acquisitions, err := q.store.Acquisitions(ctx, sessions[s].ID)
			if err != nil {
				return nil, err
			}
			for a := range acquisitions {
				records = append(records, flatten(project, &subjects[i], &sessions[s], &acquisitions[a])...)
			}
		}

		logging.Debug().
			Str("subject", subject.Label).
			Int("done", i+1).
			Int("total", len(subjects)).
			Msg("subject walked")
		if q.progress != nil {
			q.progress(i+1, len(subjects))
		}
	}

	table, err := tables.New(columnsFor(records)...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := table.Append(rec); err != nil {
			return nil, err
		}
	}

	logging.Info().
		Str("project", project.Label).
		Int("rows", table.Len()).
		Int("columns", len(table.Columns())).
		Msg("query complete")
	return table, nil
}
