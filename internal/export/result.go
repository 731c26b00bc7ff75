package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

var now = time.Now

// Result summarizes a finished export run.
type Result struct {
	Date         time.Time         `json:"date"`
	Profile      Format            `json:"profile"`
	ExportFolder string            `json:"exportFolder"`
	Files        map[string]string `json:"files"`
	MarkerCount  int               `json:"markerCount"`
	ImageCount   int               `json:"imageCount"`
	Version      string            `json:"version,omitempty"`
}

func newResult(f Format, opts Options, markerCount int) *Result {
	return &Result{
		Date:         now().UTC(),
		Profile:      f,
		ExportFolder: opts.OutputDir,
		Files:        make(map[string]string),
		MarkerCount:  markerCount,
		Version:      opts.Version,
	}
}

// ManifestPath returns the manifest written by the run.
func (r *Result) ManifestPath() string {
	return r.Files[ManifestKey(r.Profile)]
}

// WriteFile stores the result as indented JSON.
func (r *Result) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write result file %q: %w", path, err)
	}
	return nil
}
