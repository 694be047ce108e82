// Package grouper collapses duplicate-valued rows of a record table into
// representative groups for mass editing. Rows sharing identical normalized
// values across the chosen grouping columns form one group; the first row
// seen becomes the group's representative and the group id is assigned in
// first-appearance order. Membership is always a pure function of the
// grouping-column values, so it can be re-derived after the table and the
// grouped table have been loaded independently.
package grouper

import (
	"strconv"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

// Progress is an optional observer invoked after each row is processed.
type Progress func(done, total int)

// Grouper partitions a record table into groups over a set of columns.
type Grouper interface {
	// Group returns the group table for t over the given grouping columns:
	// one row per distinct value combination, in first-appearance order,
	// carrying the original columns plus group_id and groups.
	Group(t *tables.Table, columns []string) (*tables.Table, error)
}

// grouper is the default implementation of Grouper.
type grouper struct {
	progress Progress
}

// Option configures a Grouper.
type Option func(*grouper) error

// New creates a new Grouper with options.
func New(opts ...Option) (Grouper, error) {
	g := &grouper{}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WithProgress sets the row progress observer.
func WithProgress(fn Progress) Option {
	return func(g *grouper) error {
		g.progress = fn
		return nil
	}
}

// Group runs a single linear pass over t, preserving input order. It is pure:
// t is never modified and repeated calls yield identical group id
// assignments.
func (g *grouper) Group(t *tables.Table, columns []string) (*tables.Table, error) {
	if len(columns) == 0 {
		return nil, errors.NewValidationError("columns", columns, "at least one grouping column required")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, errors.NewValidationError("columns", c, "grouping column listed twice")
		}
		seen[c] = struct{}{}
	}
	if missing := t.MissingColumns(columns...); len(missing) > 0 {
		return nil, errors.NewSchemaError("records", missing)
	}
	if t.HasColumn(constants.GroupIDColumn) || t.HasColumn(constants.GroupsColumn) {
		return nil, &errors.SchemaError{Table: "records", Message: "table already carries grouping columns"}
	}

	out, err := t.WithColumns(constants.GroupIDColumn, constants.GroupsColumn)
	if err != nil {
		return nil, err
	}

	groupsLabel := JoinColumns(columns)
	assigned := make(map[string]int)
	total := t.Len()
	for i := 0; i < total; i++ {
		key := Key(t.Row(i), columns)
		if _, ok := assigned[key]; !ok {
			// First sighting fixes the representative; later members only
			// change bookkeeping.
			id := len(assigned)
			assigned[key] = id
			rep := t.Row(i).Clone()
			rep[constants.GroupIDColumn] = strconv.Itoa(id)
			rep[constants.GroupsColumn] = groupsLabel
			if err := out.Append(rep); err != nil {
				return nil, err
			}
		}
		if g.progress != nil {
			g.progress(i+1, total)
		}
	}
	return out, nil
}
