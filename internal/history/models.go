// Package history records export runs and their markers in sqlite so that
// past exports can be listed by the CLI and the HTTP API.
package history

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one export of one FCPXML document.
type Run struct {
	ID           string      `json:"id"`
	SourcePath   string      `json:"source_path"`
	ProjectName  string      `json:"project_name"`
	Profile      string      `json:"profile"`
	OutputDir    string      `json:"output_dir"`
	Status       string      `json:"status"`
	MarkerCount  int         `json:"marker_count"`
	ImageCount   int         `json:"image_count"`
	ManifestPath string      `json:"manifest_path,omitempty"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Markers      []RunMarker `json:"markers,omitempty"`
}

// RunMarker is the summary of one exported marker.
type RunMarker struct {
	Seq      int    `json:"seq"`
	MarkerID string `json:"marker_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Position string `json:"position"`
	ClipName string `json:"clip_name,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Outcome is what a finished run reports back.
type Outcome struct {
	ProjectName  string
	OutputDir    string
	MarkerCount  int
	ImageCount   int
	ManifestPath string
}

// NewRunID returns a time-sortable run id.
func NewRunID() string {
	return ulid.Make().String()
}
