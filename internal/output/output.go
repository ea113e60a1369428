// Package output persists snapshots: a timestamped JSON file per run in an output
// directory that is emptied before each run, plus in-memory and fan-out sinks.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nebles/almanac/internal/ephemeris"
)

// FilePrefix starts every snapshot file name.
const FilePrefix = "planet_positions_"

// FileName returns the snapshot file name for query time t, in UTC.
func FileName(t time.Time) string {
	return FilePrefix + t.UTC().Format("2006-01-02_15-04-05") + ".json"
}

// ClearDir removes the regular files, symlinks and empty subdirectories directly
// inside dir. It does not recurse and stops at the first entry it cannot remove.
// A missing directory has nothing to clear.
func ClearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w %s: %w", ephemeris.ErrDirectoryClear, dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		// os.Remove unlinks files and symlinks and only removes directories that are empty.
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("%w %s: %w", ephemeris.ErrDirectoryClear, dir, err)
		}
	}
	return nil
}

// Prepare clears dir and makes sure it exists. A clearing failure is logged and the
// run goes on; failing to create the directory is returned.
func Prepare(dir string, log *zerolog.Logger) error {
	if err := ClearDir(dir); err != nil {
		log.Error().Err(err).Str("dir", dir).Str("step", "clear").Msg("clearing output directory")
	} else {
		log.Info().Str("dir", dir).Msg("cleared directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ephemeris.ErrSerialization, dir, err)
	}
	return nil
}

// Encode renders a snapshot as 4-space indented JSON with a trailing newline.
func Encode(snap *ephemeris.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("%w: encoding: %w", ephemeris.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// DirSink writes each snapshot to its own file in Dir.
type DirSink struct {
	Dir string
	Log *zerolog.Logger

	mu   sync.Mutex
	last string
}

// NewDirSink returns a sink writing into dir.
func NewDirSink(dir string, log *zerolog.Logger) *DirSink {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &DirSink{Dir: dir, Log: log}
}

func (s *DirSink) Write(ctx context.Context, snap *ephemeris.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ephemeris.ErrSerialization, s.Dir, err)
	}

	path := filepath.Join(s.Dir, FileName(snap.Time))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ephemeris.ErrSerialization, err)
	}

	s.mu.Lock()
	s.last = path
	s.mu.Unlock()
	if s.Log != nil {
		s.Log.Info().Str("path", path).Int("bytes", len(data)).Msg("saved planet positions")
	}
	return nil
}

// Path returns the file written by the most recent successful Write.
func (s *DirSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MemorySink keeps snapshots in memory.
type MemorySink struct {
	mu    sync.Mutex
	snaps []*ephemeris.Snapshot
}

func (m *MemorySink) Write(_ context.Context, snap *ephemeris.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return nil
}

// Snapshots returns everything written so far.
func (m *MemorySink) Snapshots() []*ephemeris.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ephemeris.Snapshot(nil), m.snaps...)
}

// Tee writes to each sink in order and stops at the first error.
type Tee []ephemeris.Sink

func (t Tee) Write(ctx context.Context, snap *ephemeris.Snapshot) error {
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}
