// Package constants provides shared constants used throughout the redline codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the remote store
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// QueryTimeout is the timeout for walking one project hierarchy
	QueryTimeout = 10 * time.Minute

	// UploadTimeout is the timeout for pushing one batch of metadata changes
	UploadTimeout = 30 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like API keys (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries = 3

	// MaxConcurrentRequests is the maximum number of concurrent store requests
	MaxConcurrentRequests = 10

	// WriteBufferSize is the default buffer size for write operations
	WriteBufferSize = 4096

	// MaxColumnNameLength is the maximum allowed length for column names
	MaxColumnNameLength = 256

	// DefaultPageSize is the default number of items per page for paginated results
	DefaultPageSize = 100
)

// Table column constants name the bookkeeping columns a grouped table carries
const (
	// GroupIDColumn holds the 0-based group identifier assigned during grouping
	GroupIDColumn = "group_id"

	// GroupsColumn holds the comma-space-joined grouping column names
	GroupsColumn = "groups"

	// DefaultIdentityColumn uniquely references a record in the remote store
	DefaultIdentityColumn = "acquisition.id"

	// FileTypeColumn selects which acquisition file a row describes
	FileTypeColumn = "type"

	// FilenameColumn holds the file's name as stored remotely
	FilenameColumn = "filename"
)

// Network constants
const (
	// DialTimeout is the timeout for establishing network connections
	DialTimeout = 10 * time.Second

	// KeepAliveInterval is the interval between keep-alive probes
	KeepAliveInterval = 30 * time.Second

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections = 100

	// MaxConnectionsPerHost is the maximum number of connections per host
	MaxConnectionsPerHost = 10
)

// Default values
const (
	// DefaultStoreURL is the default base URL for the remote store API
	DefaultStoreURL = "https://api.redlinedata.io"

	// DefaultEnvironment is the default environment (development, staging, production)
	DefaultEnvironment = "production"
)

// Path constants
const (
	// DefaultConfigPath is the default path for configuration files
	DefaultConfigPath = "~/.redline/config.yaml"

	// DefaultProvenanceDir is where provenance logs are written by default
	DefaultProvenanceDir = "."
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatLog is the format used in log files
	TimeFormatLog = "2006-01-02 15:04:05.000"

	// TimeFormatProvenance is the format used in provenance log filenames
	TimeFormatProvenance = "2006-01-02_15-04-05"
)

// Error messages
const (
	// ErrMsgAcquisitionNotFound is the standard error message for missing acquisitions
	ErrMsgAcquisitionNotFound = "acquisition not found"

	// ErrMsgInvalidAPIKey is the standard error message for invalid API keys
	ErrMsgInvalidAPIKey = "invalid or missing API key"

	// ErrMsgRateLimited is the standard error message for rate limiting
	ErrMsgRateLimited = "rate limit exceeded, please try again later"

	// ErrMsgTimeout is the standard error message for timeouts
	ErrMsgTimeout = "operation timed out"
)
