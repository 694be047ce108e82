package redline

import (
	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/grouper"
	"github.com/redlinedata/redline/pkg/validate"
)

// Option is a function that configures a Redline instance.
type Option func(*config) error

// config holds the configured state shared by every pipeline stage.
type config struct {
	storeURL      string
	apiKey        string
	authScheme    string
	authName      string
	client        store.Client
	identity      []string
	rules         *validate.Rules
	rulesFile     string
	provenanceDir string
	dryRun        bool
	progress      grouper.Progress
}

// defaultConfig returns the configuration used when no options are given.
func defaultConfig() *config {
	return &config{
		storeURL:      constants.DefaultStoreURL,
		authScheme:    "bearer",
		identity:      []string{constants.DefaultIdentityColumn},
		provenanceDir: constants.DefaultProvenanceDir,
	}
}

// WithStoreURL sets the base URL of the remote store API.
func WithStoreURL(url string) Option {
	return func(c *config) error {
		if url == "" {
			return errors.NewConfigError("redline", "store URL cannot be empty", nil)
		}
		c.storeURL = url
		return nil
	}
}

// WithAPIKey sets the API key used to authenticate against the store.
func WithAPIKey(key string) Option {
	return func(c *config) error {
		if key == "" {
			return errors.ErrAPIKeyRequired
		}
		c.apiKey = key
		return nil
	}
}

// WithAuth selects how the API key is presented: bearer, header, or query.
// The name overrides the default header or query parameter name.
func WithAuth(scheme, name string) Option {
	return func(c *config) error {
		c.authScheme = scheme
		c.authName = name
		return nil
	}
}

// WithStoreClient injects a pre-built store client, bypassing the URL and
// API key configuration. Used by tests and callers with custom transports.
func WithStoreClient(client store.Client) Option {
	return func(c *config) error {
		if client == nil {
			return errors.NewConfigError("redline", "store client cannot be nil", nil)
		}
		c.client = client
		return nil
	}
}

// WithIdentityColumns replaces the set of columns protected from edit
// propagation. Calling with no arguments disables protection.
func WithIdentityColumns(columns ...string) Option {
	return func(c *config) error {
		for _, col := range columns {
			if col == "" {
				return errors.NewConfigError("redline", "identity column names cannot be empty", nil)
			}
		}
		c.identity = columns
		return nil
	}
}

// WithRules replaces the default validation rule set.
func WithRules(rules *validate.Rules) Option {
	return func(c *config) error {
		if rules == nil {
			return errors.NewConfigError("redline", "rules cannot be nil", nil)
		}
		c.rules = rules
		return nil
	}
}

// WithRulesFile loads the validation rule set from a YAML file.
func WithRulesFile(path string) Option {
	return func(c *config) error {
		if path == "" {
			return errors.NewConfigError("redline", "rules file path cannot be empty", nil)
		}
		c.rulesFile = path
		return nil
	}
}

// WithProvenanceDir sets where provenance logs are written.
func WithProvenanceDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return errors.NewConfigError("redline", "provenance directory cannot be empty", nil)
		}
		c.provenanceDir = dir
		return nil
	}
}

// WithDryRun makes Upload plan and validate without calling the store.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

// WithProgress registers a progress observer shared by every stage that
// reports row-level progress.
func WithProgress(fn grouper.Progress) Option {
	return func(c *config) error {
		if fn == nil {
			return errors.NewConfigError("redline", "progress callback cannot be nil", nil)
		}
		c.progress = fn
		return nil
	}
}
