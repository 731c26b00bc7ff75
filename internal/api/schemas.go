package api

import (
	"time"

	"github.com/heimdex/markers-extractor/internal/history"
	"github.com/heimdex/markers-extractor/internal/media"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string              `json:"state"`
	LastError   string              `json:"last_error,omitempty"`
	RunsRunning int                 `json:"runs_running"`
	ActiveRun   *RunResponse        `json:"active_run,omitempty"`
	Media       *media.Capabilities `json:"media,omitempty"`
}

type ExportResponse struct {
	RunID        string            `json:"run_id"`
	ProjectName  string            `json:"project_name"`
	ExportFolder string            `json:"export_folder"`
	Files        map[string]string `json:"files"`
	MarkerCount  int               `json:"marker_count"`
	ImageCount   int               `json:"image_count"`
	DuplicateIDs []string          `json:"duplicate_ids,omitempty"`
}

type RunResponse struct {
	ID           string              `json:"id"`
	SourcePath   string              `json:"source_path"`
	ProjectName  string              `json:"project_name,omitempty"`
	Profile      string              `json:"profile"`
	OutputDir    string              `json:"output_dir"`
	Status       string              `json:"status"`
	MarkerCount  int                 `json:"marker_count"`
	ImageCount   int                 `json:"image_count"`
	ManifestPath string              `json:"manifest_path,omitempty"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
	Markers      []history.RunMarker `json:"markers,omitempty"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RunToResponse(r *history.Run) RunResponse {
	return RunResponse{
		ID:           r.ID,
		SourcePath:   r.SourcePath,
		ProjectName:  r.ProjectName,
		Profile:      r.Profile,
		OutputDir:    r.OutputDir,
		Status:       r.Status,
		MarkerCount:  r.MarkerCount,
		ImageCount:   r.ImageCount,
		ManifestPath: r.ManifestPath,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
		Markers:      r.Markers,
	}
}
