// Package redline provides the entry point for round-trip bulk editing of
// metadata held in a remote hierarchical store. A project's hierarchy is
// flattened into a record table, collapsed into representative groups for
// spreadsheet editing, reconciled back onto every member row with a
// provenance log of each cell change, validated against the store's schema
// rules, and finally uploaded.
//
// Example usage:
//
//	rl, err := redline.New(
//	    redline.WithAPIKey(os.Getenv("REDLINE_API_KEY")),
//	    redline.WithProvenanceDir("./provenance"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Pull a project into a record table and group it for editing.
//	records, err := rl.Query(ctx, "reward-study")
//	grouped, err := rl.Group(records, "acquisition.label", "type")
//
//	// ... edit a copy of grouped externally, then reconcile ...
//	result, err := rl.Ungroup(ctx, records, grouped, edited)
//	if result.IsSuccess() {
//	    _, err = rl.Upload(ctx, records, result.Table)
//	}
package redline

import (
	"context"
	"sync"

	"github.com/redlinedata/redline/internal/query"
	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/internal/upload"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/reconcile"
	"github.com/redlinedata/redline/pkg/tables"
	"github.com/redlinedata/redline/pkg/validate"
)

// Compile-time interface check to ensure proper implementation.
var _ Redline = (*redline)(nil)

// Redline drives the round-trip editing pipeline. All heavy lifting lives in
// the stage packages; this interface only binds them to shared configuration.
type Redline interface {
	// Query flattens one project's hierarchy into a record table, one row
	// per acquisition file.
	Query(ctx context.Context, project string) (*tables.Table, error)

	// Group collapses duplicate-valued rows over the given columns into a
	// group table for external editing.
	Group(t *tables.Table, columns ...string) (*tables.Table, error)

	// Ungroup reconciles an externally edited group table back onto the
	// original records, writing a provenance log of every applied change.
	Ungroup(ctx context.Context, original, groups, modified *tables.Table) (*reconcile.Result, error)

	// Validate checks the modified value of every provenance entry against
	// the configured rules.
	Validate(log *provenance.Log) ([]validate.Violation, error)

	// Upload commits the difference between the original and reconciled
	// tables to the store.
	Upload(ctx context.Context, original, reconciled *tables.Table) (*upload.Result, error)

	// OnChange registers a callback for every accepted edit.
	OnChange(fn ChangeHook)

	// OnWarning registers a callback for pipeline warnings.
	OnWarning(fn WarningHook)
}

// redline is the internal implementation of the Redline interface.
type redline struct {
	config  *config
	checker validate.Checker
	hooks   *hooks

	// store client, built on first use; Group, Ungroup, and Validate work
	// without store access
	mu    sync.Mutex
	store store.Client
}

// New creates a new Redline instance with the given options.
func New(opts ...Option) (Redline, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	var checkerOpts []validate.Option
	if c.rules != nil {
		checkerOpts = append(checkerOpts, validate.WithRules(c.rules))
	}
	if c.rulesFile != "" {
		checkerOpts = append(checkerOpts, validate.WithRulesFile(c.rulesFile))
	}
	checker, err := validate.New(checkerOpts...)
	if err != nil {
		return nil, err
	}

	return &redline{
		config:  c,
		checker: checker,
		hooks:   newHooks(),
		store:   c.client,
	}, nil
}

// Query flattens one project's hierarchy into a record table.
func (r *redline) Query(ctx context.Context, project string) (*tables.Table, error) {
	client, err := r.storeClient()
	if err != nil {
		return nil, err
	}

	var opts []query.Option
	if r.config.progress != nil {
		opts = append(opts, query.WithProgress(r.config.progress))
	}
	q, err := query.New(client, opts...)
	if err != nil {
		return nil, err
	}
	return q.Project(ctx, project)
}

// Group collapses duplicate-valued rows into a group table.
func (r *redline) Group(t *tables.Table, columns ...string) (*tables.Table, error) {
	var opts []grouper.Option
	if r.config.progress != nil {
		opts = append(opts, grouper.WithProgress(r.config.progress))
	}
	g, err := grouper.New(opts...)
	if err != nil {
		return nil, err
	}
	return g.Group(t, columns)
}

// Ungroup reconciles an externally edited group table back onto the original
// records.
func (r *redline) Ungroup(ctx context.Context, original, groups, modified *tables.Table) (*reconcile.Result, error) {
	opts := []reconcile.Option{
		reconcile.WithIdentityColumns(r.config.identity...),
		reconcile.WithProvenanceDir(r.config.provenanceDir),
	}
	if r.config.progress != nil {
		opts = append(opts, reconcile.WithProgress(r.config.progress))
	}
	rec, err := reconcile.New(opts...)
	if err != nil {
		return nil, err
	}

	result, err := rec.Reconcile(ctx, original, groups, modified)
	if err != nil {
		return nil, err
	}
	r.hooks.emitChanges(result.Changeset)
	r.hooks.emitWarnings(result.Warnings)
	return result, nil
}

// Validate checks every provenance entry against the configured rules.
func (r *redline) Validate(log *provenance.Log) ([]validate.Violation, error) {
	if log == nil {
		return nil, errors.NewValidationError("log", nil, "provenance log is required")
	}
	return r.checker.CheckLog(log), nil
}

// Upload commits the difference between the two tables to the store.
func (r *redline) Upload(ctx context.Context, original, reconciled *tables.Table) (*upload.Result, error) {
	client, err := r.storeClient()
	if err != nil {
		return nil, err
	}

	opts := []upload.Option{
		upload.WithChecker(r.checker),
		upload.WithDryRun(r.config.dryRun),
	}
	if r.config.progress != nil {
		opts = append(opts, upload.WithProgress(r.config.progress))
	}
	up, err := upload.New(client, opts...)
	if err != nil {
		return nil, err
	}

	result, err := up.Upload(ctx, original, reconciled)
	if err != nil {
		return nil, err
	}
	r.hooks.emitWarnings(result.Warnings)
	return result, nil
}

// OnChange registers a callback for every accepted edit.
func (r *redline) OnChange(fn ChangeHook) {
	r.hooks.OnChange(fn)
}

// OnWarning registers a callback for pipeline warnings.
func (r *redline) OnWarning(fn WarningHook) {
	r.hooks.OnWarning(fn)
}

// storeClient returns the configured store client, building it on first use.
func (r *redline) storeClient() (store.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return r.store, nil
	}
	if r.config.apiKey == "" {
		return nil, errors.NewConfigError("redline",
			"an API key is required for store operations", errors.ErrAPIKeyRequired)
	}

	client, err := store.New(
		store.WithBaseURL(r.config.storeURL),
		store.WithAPIKey(r.config.apiKey),
		store.WithAuth(r.config.authScheme, r.config.authName),
	)
	if err != nil {
		return nil, err
	}
	r.store = client
	return client, nil
}
