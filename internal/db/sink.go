package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nebles/almanac/internal/ephemeris"
)

// SnapshotSink records every snapshot it receives as a run.
type SnapshotSink struct {
	DB *DB
	// FilePath reports where the snapshot file went, if anywhere. Called after the
	// preceding sinks have written.
	FilePath func() string
	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time

	lastID string
}

// Write implements ephemeris.Sink.
func (s *SnapshotSink) Write(ctx context.Context, snap *ephemeris.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %w", ephemeris.ErrSerialization, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	run := Run{
		ID:        uuid.NewString(),
		TimeUTC:   snap.TimeUTC,
		CreatedAt: now().UnixMilli(),
		Snapshot:  data,
	}
	if s.FilePath != nil {
		if p := s.FilePath(); p != "" {
			run.FilePath = &p
		}
	}

	// Every sign block carries the same positions, aspects and cusps.
	if keys := snap.Data.Keys(); len(keys) > 0 {
		entry, _ := snap.Data.Get(keys[0])
		run.BodyCount = entry.Positions.Len()
		run.AspectCount = len(entry.Aspects)
		run.HasHouses = entry.HouseCusps != nil
	}

	if err := s.DB.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("%w: %w", ephemeris.ErrSerialization, err)
	}
	s.lastID = run.ID
	return nil
}

// RunID returns the ID of the last run recorded.
func (s *SnapshotSink) RunID() string {
	return s.lastID
}
