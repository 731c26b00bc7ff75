package extractor

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/markers-extractor/internal/db"
	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/fcpxml"
	"github.com/heimdex/markers-extractor/internal/history"
	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
)

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<fcpxml version="1.11">
  <resources>
    <format id="r1" frameDuration="100/2500s"/>
    <asset id="r2" name="Interview"/>
  </resources>
  <library location="file:///Users/editor/Movies/Test.fcpbundle/">
    <event name="Day 1">
      <project name="Cut 1">
        <sequence format="r1" tcStart="3600s" tcFormat="NDF">
          <spine>
            <asset-clip ref="r2" offset="3600s" start="0s" duration="20s" name="Interview">
              <marker start="5s" duration="1/25s" value="Note"/>
              <marker start="2s" duration="1/25s" value="Intro"/>
              <marker start="9s" duration="1/25s" value="Note" completed="0"/>
            </asset-clip>
          </spine>
        </sequence>
      </project>
    </event>
  </library>
</fcpxml>`

type fakeProber struct {
	hasVideo bool
	err      error
}

func (f fakeProber) HasVideo(context.Context, string) (bool, error) { return f.hasVideo, f.err }

type fakeRenderer struct {
	mu       sync.Mutex
	requests []media.RenderRequest
}

func (f *fakeRenderer) Render(_ context.Context, req media.RenderRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	for _, e := range req.Entries {
		if err := os.WriteFile(filepath.Join(req.OutputDir, e.Filename), []byte("img"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeDoc(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "Cut 1.fcpxml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return path
}

func setupHistory(t *testing.T) *history.SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return history.NewRepository(database.Conn())
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	dir := t.TempDir()
	s := DefaultSettings()
	s.SourcePath = writeDoc(t, dir, testDoc)
	s.OutputDir = filepath.Join(dir, "out")
	s.IDMode = string(markers.IDModeName)
	return s
}

func TestRun_CSVWithPlaceholder(t *testing.T) {
	s := testSettings(t)
	renderer := &fakeRenderer{}
	repo := setupHistory(t)
	runner := NewRunner(fakeProber{}, renderer, repo, "1.0.0")
	runner.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	e := env.New(nil)
	report, err := runner.Run(context.Background(), e, s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantDir := filepath.Join(s.OutputDir, "Cut 1 2024-05-01 10-30-00 [csv]")
	if report.Result.ExportFolder != wantDir {
		t.Errorf("ExportFolder = %q, want %q", report.Result.ExportFolder, wantDir)
	}
	if report.ProjectName != "Cut 1" {
		t.Errorf("ProjectName = %q", report.ProjectName)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0] != "Note" {
		t.Errorf("Duplicates = %v", report.Duplicates)
	}

	if len(renderer.requests) != 1 {
		t.Fatalf("Render called %d times, want 1", len(renderer.requests))
	}
	req := renderer.requests[0]
	if !req.Placeholder || len(req.Entries) != 1 {
		t.Errorf("request = placeholder %v, %d entries; want single placeholder frame", req.Placeholder, len(req.Entries))
	}

	f, err := os.Open(report.Result.ManifestPath())
	if err != nil {
		t.Fatalf("failed to open manifest: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("manifest has %d rows, want header + 3", len(rows))
	}
	var ids []string
	for _, row := range rows[1:] {
		ids = append(ids, row[0])
	}
	if got := strings.Join(ids, ","); got != "Intro,Note-1,Note-2" {
		t.Errorf("ids = %s, want sorted and uniqued", got)
	}

	run, err := repo.GetRun(context.Background(), e.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun() = %v, %v", run, err)
	}
	if run.Status != history.StatusSucceeded || run.ProjectName != "Cut 1" || run.MarkerCount != 3 {
		t.Errorf("history run = %+v", run)
	}
	if len(run.Markers) != 3 || run.Markers[0].MarkerID != "Intro" {
		t.Errorf("history markers = %+v", run.Markers)
	}
}

func TestRun_UsesMediaNextToDocument(t *testing.T) {
	s := testSettings(t)
	mediaPath := filepath.Join(filepath.Dir(s.SourcePath), "Cut 1.mov")
	if err := os.WriteFile(mediaPath, []byte("movie"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Subfolder = false
	s.Format = "json"

	renderer := &fakeRenderer{}
	report, err := NewRunner(fakeProber{hasVideo: true}, renderer, nil, "").Run(context.Background(), nil, s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.MediaPath != mediaPath {
		t.Errorf("MediaPath = %q, want %q", report.MediaPath, mediaPath)
	}
	if report.Result.ExportFolder != s.OutputDir {
		t.Errorf("ExportFolder = %q, want %q", report.Result.ExportFolder, s.OutputDir)
	}
	req := renderer.requests[0]
	if req.Placeholder || req.Source != mediaPath || len(req.Entries) != 3 {
		t.Errorf("request = %+v", req)
	}
}

func TestRun_EmptyIDFailsAndIsRecorded(t *testing.T) {
	s := testSettings(t)
	s.SourcePath = writeDoc(t, t.TempDir(), strings.Replace(testDoc, `value="Intro"`, `value=""`, 1))
	s.NoMedia = true
	repo := setupHistory(t)

	e := env.New(nil)
	_, err := NewRunner(fakeProber{}, &fakeRenderer{}, repo, "").Run(context.Background(), e, s)
	if !errors.Is(err, markers.ErrEmptyID) {
		t.Fatalf("Run() error = %v, want ErrEmptyID", err)
	}
	if !IsUserError(err) {
		t.Error("IsUserError() = false for an empty id")
	}

	run, _ := repo.GetRun(context.Background(), e.RunID)
	if run == nil || run.Status != history.StatusFailed || run.Error == "" {
		t.Errorf("history run = %+v", run)
	}
}

func TestRun_NotFCPXML(t *testing.T) {
	s := testSettings(t)
	s.SourcePath = writeDoc(t, t.TempDir(), `<?xml version="1.0"?><plist/>`)
	_, err := NewRunner(fakeProber{}, &fakeRenderer{}, nil, "").Run(context.Background(), nil, s)
	if !errors.Is(err, fcpxml.ErrNotFCPXML) {
		t.Fatalf("Run() error = %v, want ErrNotFCPXML", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"missing source", func(s *Settings) { s.SourcePath = "" }, true},
		{"missing output", func(s *Settings) { s.OutputDir = "" }, true},
		{"unknown format", func(s *Settings) { s.Format = "xlsx" }, true},
		{"uppercase format", func(s *Settings) { s.Format = "TSV" }, false},
		{"unknown id mode", func(s *Settings) { s.IDMode = "random" }, true},
		{"unknown image format", func(s *Settings) { s.ImageFormat = "bmp" }, true},
		{"quality too high", func(s *Settings) { s.ImageQuality = 101 }, true},
		{"size percent zero", func(s *Settings) { s.ImageSizePercent = 0 }, true},
		{"gif fps too low", func(s *Settings) { s.GIFFPS = 0.01 }, true},
		{"gif fps max", func(s *Settings) { s.GIFFPS = 60 }, false},
		{"opacity", func(s *Settings) { s.LabelOpacity = -1 }, true},
		{"bad color", func(s *Settings) { s.LabelFontColor = "white" }, true},
		{"known label", func(s *Settings) { s.Labels = []string{"name", "Notes"} }, false},
		{"unknown label", func(s *Settings) { s.Labels = []string{"bogus"} }, true},
		{"bad alignment", func(s *Settings) { s.LabelAlignVertical = "middle" }, true},
		{"media and no media", func(s *Settings) { s.MediaPath = "/x.mov"; s.NoMedia = true }, true},
		{"done file without name", func(s *Settings) { s.CreateDoneFile = true; s.DoneFilename = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.SourcePath = "/in/Cut 1.fcpxml"
			s.OutputDir = "/out"
			tt.modify(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Validate() error = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestFindMedia(t *testing.T) {
	dir := t.TempDir()
	if got := FindMedia([]string{dir}, "Cut 1"); got != "" {
		t.Errorf("FindMedia() = %q in an empty dir", got)
	}

	mp4 := filepath.Join(dir, "Cut 1.mp4")
	os.WriteFile(mp4, nil, 0o644)
	mov := filepath.Join(dir, "Cut 1.mov")
	os.WriteFile(mov, nil, 0o644)
	if got := FindMedia([]string{dir}, "Cut 1"); got != mov {
		t.Errorf("FindMedia() = %q, want %q", got, mov)
	}

	os.Mkdir(filepath.Join(t.TempDir(), "Cut 1.mov"), 0o755)
	if got := FindMedia([]string{t.TempDir(), dir}, "Cut 1"); got != mov {
		t.Errorf("FindMedia() across dirs = %q, want %q", got, mov)
	}
}
