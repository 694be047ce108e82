package store

import (
	"context"
	"net/url"

	"github.com/redlinedata/redline/internal/transport"
	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/logging"
)

// client is the HTTP implementation of Client.
type client struct {
	base       string
	apiKey     string
	authScheme string
	authName   string
	http       *transport.Client
}

// Option configures the store client.
type Option func(*client) error

// New creates a store client. Without options it targets the default store
// URL with bearer authentication.
func New(opts ...Option) (Client, error) {
	c := &client{
		base:       constants.DefaultStoreURL,
		authScheme: "bearer",
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.http == nil {
		auth, err := transport.ForScheme(c.authScheme, c.authName)
		if err != nil {
			return nil, err
		}
		c.http = transport.New(auth, c.apiKey)
	}
	return c, nil
}

// WithBaseURL sets the store's base URL.
func WithBaseURL(base string) Option {
	return func(c *client) error {
		if base == "" {
			return errors.NewConfigError("store", "base URL cannot be empty", nil)
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewConfigError("store", "invalid base URL "+base, err)
		}
		c.base = u.Scheme + "://" + u.Host
		return nil
	}
}

// WithAPIKey sets the API key sent on every request.
func WithAPIKey(key string) Option {
	return func(c *client) error {
		if key == "" {
			return errors.ErrAPIKeyRequired
		}
		c.apiKey = key
		return nil
	}
}

// WithAuth sets the authentication scheme and, for header or query schemes,
// the header or parameter name.
func WithAuth(scheme, name string) Option {
	return func(c *client) error {
		if _, err := transport.ForScheme(scheme, name); err != nil {
			return err
		}
		c.authScheme = scheme
		c.authName = name
		return nil
	}
}

// WithTransport replaces the HTTP transport, primarily for tests.
func WithTransport(t *transport.Client) Option {
	return func(c *client) error {
		if t == nil {
			return errors.NewConfigError("store", "transport cannot be nil", nil)
		}
		c.http = t
		return nil
	}
}

func (c *client) endpoint(parts ...string) string {
	u := c.base + "/api"
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// Projects lists every project visible to the API key.
func (c *client) Projects(ctx context.Context) ([]Project, error) {
	resp, err := c.http.Get(ctx, c.endpoint("projects"))
	if err != nil {
		return nil, errors.WrapResource("list", "project", "", err)
	}

	var projects []Project
	if err := transport.DecodeResponse(resp, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// LookupProject resolves a project by its label.
func (c *client) LookupProject(ctx context.Context, label string) (*Project, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Label == label {
			return &projects[i], nil
		}
	}
	return nil, errors.NewNotFoundError("project", label)
}

// Subjects lists the subjects of a project.
func (c *client) Subjects(ctx context.Context, projectID string) ([]Subject, error) {
	resp, err := c.http.Get(ctx, c.endpoint("projects", projectID, "subjects"))
	if err != nil {
		return nil, errors.WrapResource("list", "subject", projectID, err)
	}

	var subjects []Subject
	if err := transport.DecodeResponse(resp, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// Sessions lists the sessions of a subject.
func (c *client) Sessions(ctx context.Context, subjectID string) ([]Session, error) {
	resp, err := c.http.Get(ctx, c.endpoint("subjects", subjectID, "sessions"))
	if err != nil {
		return nil, errors.WrapResource("list", "session", subjectID, err)
	}

	var sessions []Session
	if err := transport.DecodeResponse(resp, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Acquisitions lists the acquisitions of a session, files included.
func (c *client) Acquisitions(ctx context.Context, sessionID string) ([]Acquisition, error) {
	resp, err := c.http.Get(ctx, c.endpoint("sessions", sessionID, "acquisitions"))
	if err != nil {
		return nil, errors.WrapResource("list", "acquisition", sessionID, err)
	}

	var acquisitions []Acquisition
	if err := transport.DecodeResponse(resp, &acquisitions); err != nil {
		return nil, err
	}
	return acquisitions, nil
}

// Acquisition fetches one acquisition by id, files included.
func (c *client) Acquisition(ctx context.Context, id string) (*Acquisition, error) {
	resp, err := c.http.Get(ctx, c.endpoint("acquisitions", id))
	if err != nil {
		return nil, errors.WrapResource("get", "acquisition", id, err)
	}

	var acquisition Acquisition
	if err := transport.DecodeResponse(resp, &acquisition); err != nil {
		return nil, err
	}
	return &acquisition, nil
}

// UpdateFileInfo merges the given keys into a file's info map.
func (c *client) UpdateFileInfo(ctx context.Context, acquisitionID, fileName string, info map[string]any) error {
	logging.Debug().
		Str("acquisition", acquisitionID).
		Str("file", fileName).
		Int("keys", len(info)).
		Msg("updating file info")

	body := map[string]any{"set": info}
	resp, err := c.http.Post(ctx, c.endpoint("acquisitions", acquisitionID, "files", fileName, "info"), body)
	if err != nil {
		return errors.WrapResource("update", "file", fileName, err)
	}
	return transport.Drain(resp)
}

// UpdateFileClassification replaces the given classification axes on a file.
func (c *client) UpdateFileClassification(ctx context.Context, acquisitionID, fileName string, classification map[string][]string) error {
	logging.Debug().
		Str("acquisition", acquisitionID).
		Str("file", fileName).
		Int("axes", len(classification)).
		Msg("updating file classification")

	body := map[string]any{"replace": classification}
	resp, err := c.http.Post(ctx, c.endpoint("acquisitions", acquisitionID, "files", fileName, "classification"), body)
	if err != nil {
		return errors.WrapResource("update", "file", fileName, err)
	}
	return transport.Drain(resp)
}

// UpdateFile sets scalar attributes of a file, such as its name, type, or
// modality.
func (c *client) UpdateFile(ctx context.Context, acquisitionID, fileName string, attrs map[string]any) error {
	logging.Debug().
		Str("acquisition", acquisitionID).
		Str("file", fileName).
		Int("attrs", len(attrs)).
		Msg("updating file attributes")

	resp, err := c.http.Put(ctx, c.endpoint("acquisitions", acquisitionID, "files", fileName), attrs)
	if err != nil {
		return errors.WrapResource("update", "file", fileName, err)
	}
	return transport.Drain(resp)
}
