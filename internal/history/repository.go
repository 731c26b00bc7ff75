package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, out Outcome) error
	FailRun(ctx context.Context, id, errorMsg string) error
	AddMarkers(ctx context.Context, runID string, markers []RunMarker) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func (r *SQLiteRepository) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	ts := r.now().UTC()
	run.CreatedAt, run.UpdatedAt = ts, ts

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_runs (id, source_path, project_name, profile, output_dir, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourcePath, run.ProjectName, run.Profile, run.OutputDir, run.Status,
		ts.Format(time.RFC3339Nano), ts.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to create export run: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FinishRun(ctx context.Context, id string, out Outcome) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_runs
		SET status = ?, project_name = ?, output_dir = ?, marker_count = ?, image_count = ?, manifest_path = ?, updated_at = ?
		WHERE id = ?
	`, StatusSucceeded, out.ProjectName, out.OutputDir, out.MarkerCount, out.ImageCount, out.ManifestPath, r.timestamp(), id)
	return err
}

func (r *SQLiteRepository) FailRun(ctx context.Context, id, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, StatusFailed, errorMsg, r.timestamp(), id)
	return err
}

// AddMarkers stores the marker summaries of a run in one transaction.
func (r *SQLiteRepository) AddMarkers(ctx context.Context, runID string, markers []RunMarker) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO export_markers (run_id, seq, marker_id, name, kind, status, position, clip_name, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range markers {
		if _, err := stmt.ExecContext(ctx, runID, m.Seq, m.MarkerID, m.Name, m.Kind, m.Status, m.Position, m.ClipName, m.Notes); err != nil {
			return fmt.Errorf("failed to store marker %q: %w", m.MarkerID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, source_path, project_name, profile, output_dir, status, marker_count, image_count, manifest_path, error, created_at, updated_at`

// GetRun returns the run with its markers, or nil when it does not exist.
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM export_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, marker_id, name, kind, status, position, clip_name, notes
		FROM export_markers WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m RunMarker
		if err := rows.Scan(&m.Seq, &m.MarkerID, &m.Name, &m.Kind, &m.Status, &m.Position, &m.ClipName, &m.Notes); err != nil {
			return nil, err
		}
		run.Markers = append(run.Markers, m)
	}
	return run, rows.Err()
}

// ListRuns returns the most recent runs first, without markers.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM export_runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var createdAt, updatedAt string
	err := s.Scan(&run.ID, &run.SourcePath, &run.ProjectName, &run.Profile, &run.OutputDir, &run.Status,
		&run.MarkerCount, &run.ImageCount, &run.ManifestPath, &run.Error, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &run, nil
}
