// Package store models the remote hierarchical data-management system and
// provides the HTTP client used to read and update it. The hierarchy is
// projects at the top, subjects inside a project, sessions inside a subject,
// and acquisitions with their files at the bottom.
package store

import (
	"context"
	"time"
)

// Project is the top level container of the hierarchy.
type Project struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Info  map[string]any `json:"info,omitempty"`
}

// Subject is one study participant within a project.
type Subject struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Sex     string         `json:"sex,omitempty"`
	Species string         `json:"species,omitempty"`
	Info    map[string]any `json:"info,omitempty"`
}

// Session is one visit of a subject.
type Session struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Age       *float64       `json:"age,omitempty"`
	Weight    *float64       `json:"weight,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Info      map[string]any `json:"info,omitempty"`
}

// Acquisition is one scan or measurement within a session. Its ID is the
// identity value that ties a CSV row back to the store.
type Acquisition struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Info      map[string]any `json:"info,omitempty"`
	Files     []File         `json:"files,omitempty"`
}

// File is one data file attached to an acquisition.
type File struct {
	Name           string              `json:"name"`
	Type           string              `json:"type"`
	Modality       string              `json:"modality,omitempty"`
	Size           int64               `json:"size,omitempty"`
	Classification map[string][]string `json:"classification,omitempty"`
	Info           map[string]any      `json:"info,omitempty"`
}

// Client is the read and update surface of the remote store.
type Client interface {
	// Projects lists every project visible to the API key.
	Projects(ctx context.Context) ([]Project, error)

	// LookupProject resolves a project by its label.
	LookupProject(ctx context.Context, label string) (*Project, error)

	// Subjects lists the subjects of a project.
	Subjects(ctx context.Context, projectID string) ([]Subject, error)

	// Sessions lists the sessions of a subject.
	Sessions(ctx context.Context, subjectID string) ([]Session, error)

	// Acquisitions lists the acquisitions of a session, files included.
	Acquisitions(ctx context.Context, sessionID string) ([]Acquisition, error)

	// Acquisition fetches one acquisition by id, files included.
	Acquisition(ctx context.Context, id string) (*Acquisition, error)

	// UpdateFileInfo merges the given keys into a file's info map.
	UpdateFileInfo(ctx context.Context, acquisitionID, fileName string, info map[string]any) error

	// UpdateFileClassification replaces the given classification axes on a
	// file.
	UpdateFileClassification(ctx context.Context, acquisitionID, fileName string, classification map[string][]string) error

	// UpdateFile sets scalar attributes of a file, such as its name, type,
	// or modality.
	UpdateFile(ctx context.Context, acquisitionID, fileName string, attrs map[string]any) error
}
