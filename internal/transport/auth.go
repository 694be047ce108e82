// Package transport provides the authenticated HTTP client the store layer
// is built on.
package transport

import (
	"net/http"
	"strings"

	"github.com/redlinedata/redline/pkg/errors"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {
	// No authentication applied
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}

// QueryAuth implements API key as query parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil {
		return
	}

	query := req.URL.Query()
	query.Set(a.Param, apiKey)
	req.URL.RawQuery = query.Encode()
}

// ForScheme returns the authenticator for a configured auth scheme. The name
// argument carries the header or query parameter name for the schemes that
// need one.
func ForScheme(scheme, name string) (Authenticator, error) {
	switch strings.ToLower(scheme) {
	case "", "bearer":
		return &BearerAuth{}, nil
	case "header":
		if name == "" {
			name = "X-API-Key"
		}
		return &HeaderAuth{Header: name}, nil
	case "query":
		if name == "" {
			name = "api_key"
		}
		return &QueryAuth{Param: name}, nil
	case "none":
		return &NoAuth{}, nil
	default:
		return nil, errors.NewConfigError("transport", "unknown auth scheme "+scheme, nil)
	}
}
