package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/heimdex/markers-extractor/internal/db"
)

func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestRepository_RunLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	run := &Run{SourcePath: "/projects/Cut 1.fcpxml", ProjectName: "Cut 1", Profile: "csv"}
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("CreateRun() left run = %+v", run)
	}

	markers := []RunMarker{
		{Seq: 1, MarkerID: "Note-1", Name: "Note", Kind: "Marker", Status: "Not Started", Position: "01:00:01:00"},
		{Seq: 2, MarkerID: "Note-2", Name: "Note", Kind: "To Do", Status: "Done", Position: "01:00:02:00", Notes: "fixed"},
	}
	if err := repo.AddMarkers(ctx, run.ID, markers); err != nil {
		t.Fatalf("AddMarkers() error = %v", err)
	}
	if err := repo.FinishRun(ctx, run.ID, Outcome{OutputDir: "/out", MarkerCount: 2, ImageCount: 2, ManifestPath: "/out/Cut 1.csv"}); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != StatusSucceeded || got.MarkerCount != 2 || got.ManifestPath != "/out/Cut 1.csv" {
		t.Errorf("GetRun() = %+v", got)
	}
	if len(got.Markers) != 2 || got.Markers[1].Notes != "fixed" {
		t.Errorf("Markers = %+v", got.Markers)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}

func TestRepository_GetRunMissing(t *testing.T) {
	repo := setupTestDB(t)
	got, err := repo.GetRun(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("GetRun(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestRepository_ListRunsNewestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		if err := repo.CreateRun(ctx, &Run{SourcePath: name, Profile: "txt"}); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].SourcePath != "third" || runs[1].SourcePath != "second" {
		t.Fatalf("ListRuns() = %+v", runs)
	}
}

func TestRepository_FailRun(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	run := &Run{SourcePath: "x.fcpxml", Profile: "json"}
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := repo.FailRun(ctx, run.ID, "empty marker id"); err != nil {
		t.Fatalf("FailRun() error = %v", err)
	}
	got, _ := repo.GetRun(ctx, run.ID)
	if got.Status != StatusFailed || got.Error != "empty marker id" {
		t.Fatalf("GetRun() = %+v", got)
	}
}
