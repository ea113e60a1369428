package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("ambiguous run reference")
)

// Run represents a row in the runs table
type Run struct {
	ID          string          `json:"id"`
	TimeUTC     string          `json:"time_utc"`
	CreatedAt   int64           `json:"created_at"` // Unix millis
	FilePath    *string         `json:"file_path"`
	BodyCount   int             `json:"body_count"`
	AspectCount int             `json:"aspect_count"`
	HasHouses   bool            `json:"has_houses"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
}

const runColumns = `id, time_utc, created_at, file_path, body_count, aspect_count, has_houses, snapshot`

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var r Run
	var snapshot string
	err := scanner.Scan(
		&r.ID, &r.TimeUTC, &r.CreatedAt, &r.FilePath,
		&r.BodyCount, &r.AspectCount, &r.HasHouses, &snapshot,
	)
	r.Snapshot = json.RawMessage(snapshot)
	return r, err
}

// SaveRun inserts a run. Saving the same ID twice is an error.
func (d *DB) SaveRun(ctx context.Context, r Run) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.TimeUTC, r.CreatedAt, r.FilePath, r.BodyCount, r.AspectCount, r.HasHouses, string(r.Snapshot))
	if err != nil {
		return fmt.Errorf("saving run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun finds a run by full ID or by a unique ID prefix.
func (d *DB) GetRun(ctx context.Context, reference string) (*Run, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, reference)
	r, err := scanRun(row)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 10
	`, reference+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, reference)
	case 1:
		return &matches[0], nil
	}
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("  %s %s", shortID(m.ID), m.TimeUTC)
	}
	return nil, fmt.Errorf("%w '%s'. %d matches:\n%s\nUse a full run ID instead.",
		ErrAmbiguousRun, reference, len(matches), strings.Join(lines, "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
