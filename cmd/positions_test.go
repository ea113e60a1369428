package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"nebles/almanac/internal/config"
	"nebles/almanac/internal/ephemeris"
)

// stubOracle places body n at n*23.5 degrees and puts cusps 30 degrees apart.
type stubOracle struct{ fail bool }

func (s stubOracle) BodyPosition(_ context.Context, _ float64, code ephemeris.BodyCode) (ephemeris.BodyState, error) {
	if s.fail {
		return ephemeris.BodyState{}, fmt.Errorf("%w: VSOP87B.jup missing", ephemeris.ErrEphemerisUnavailable)
	}
	speed := 1.0
	if code == ephemeris.CodeTrueNode {
		speed = -0.05
	}
	return ephemeris.BodyState{Longitude: float64(code) * 23.5, Speed: speed}, nil
}

func (s stubOracle) HouseCusps(context.Context, float64, ephemeris.Location) ([12]float64, error) {
	var cusps [12]float64
	for i := range cusps {
		cusps[i] = float64(i)*30 + 5
	}
	return cusps, nil
}

func useOracle(t *testing.T, o ephemeris.Oracle) {
	t.Helper()
	orig := openOracle
	openOracle = func(string, *zerolog.Logger) (ephemeris.Oracle, error) { return o, nil }
	t.Cleanup(func() { openOracle = orig })
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPositionsJSON(t *testing.T) {
	useOracle(t, stubOracle{})
	dir := t.TempDir()
	stale := filepath.Join(dir, "planet_positions_2020-01-01_00-00-00.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "positions", "--at", "2024-03-20T12:00:00Z", "--output-dir", dir, "--json")
	if err != nil {
		t.Fatalf("positions: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale snapshot should have been cleared, stat err = %v", err)
	}
	written := filepath.Join(dir, "planet_positions_2024-03-20_12-00-00.json")
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("snapshot file: %v", err)
	}
	if string(data) != out {
		t.Error("stdout should match the written file")
	}

	var snap ephemeris.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if snap.TimeUTC != "2024-03-20T12:00:00Z" {
		t.Errorf("time_utc = %q", snap.TimeUTC)
	}
	if snap.Data.Len() != 12 {
		t.Fatalf("sign blocks = %d, want 12", snap.Data.Len())
	}
	aries, _ := snap.Data.Get("Aries")
	if aries.Positions.Len() != 17 {
		t.Errorf("positions = %d, want 17", aries.Positions.Len())
	}
	if aries.HouseCusps != nil {
		t.Error("no location given, cusps should be null")
	}
	node, _ := aries.Positions.Get(ephemeris.SouthNode)
	if !node.Retrograde {
		t.Error("South Node should copy the North Node's retrograde flag")
	}
}

func TestPositionsWithHousesHistoryAndMetrics(t *testing.T) {
	useOracle(t, stubOracle{})
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "output")
	dbPath := filepath.Join(tmp, "almanac.db")
	metricsPath := filepath.Join(tmp, "almanac.prom")

	out, err := execute(t, "positions",
		"--at", "2024-03-20T12:00:00+02:00",
		"--lat", "51.5", "--lon", "0",
		"--time-known",
		"--output-dir", outDir,
		"--db", dbPath,
		"--metrics-file", metricsPath,
	)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	for _, want := range []string{"POSITIONS", "HOUSE CUSPS (Placidus)", "ASPECTS", "PATTERNS", "planet_positions_2024-03-20_10-00-00.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	var runID string
	for _, line := range strings.Split(out, "\n") {
		if id, ok := strings.CutPrefix(strings.TrimSpace(line), "Run "); ok {
			runID = id
		}
	}
	if runID == "" {
		t.Fatalf("no run id in output:\n%s", out)
	}

	list, err := execute(t, "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(list, runID[:8]) || !strings.Contains(list, "houses") {
		t.Errorf("history listing = %q", list)
	}

	shown, err := execute(t, "history", "show", runID[:8], "--db", dbPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	var snap ephemeris.Snapshot
	if err := json.Unmarshal([]byte(shown), &snap); err != nil {
		t.Fatalf("decoding shown snapshot: %v", err)
	}
	leo, _ := snap.Data.Get("Leo")
	if len(leo.HouseCusps) != 12 {
		t.Errorf("cusps = %v", leo.HouseCusps)
	}
	sun, _ := leo.Positions.Get("Sun")
	if sun.House == nil || *sun.House != 12 {
		t.Errorf("Sun at 0 degrees with cusps from 5 should be in house 12, got %v", sun.House)
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(metrics), "almanac_bodies 17") || !strings.Contains(string(metrics), "almanac_houses_cast 1") {
		t.Errorf("metrics = %s", metrics)
	}
}

func TestPositionsEphemerisUnavailable(t *testing.T) {
	useOracle(t, stubOracle{fail: true})
	dir := t.TempDir()

	_, err := execute(t, "positions", "--output-dir", dir)
	if !errors.Is(err, ephemeris.ErrEphemerisUnavailable) {
		t.Fatalf("err = %v, want ErrEphemerisUnavailable", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no snapshot should be written, found %d entries", len(entries))
	}
}

func TestPositionsFlagErrors(t *testing.T) {
	useOracle(t, stubOracle{})
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"lat without lon", []string{"--lat", "10"}, "must be given together"},
		{"bad time", []string{"--at", "yesterday"}, "--at"},
		{"bad latitude", []string{"--lat", "91", "--lon", "0"}, "invalid location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"positions", "--output-dir", t.TempDir()}, tt.args...)
			_, err := execute(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	_, err := execute(t, "history")
	if !errors.Is(err, errHistoryDisabled) {
		t.Errorf("err = %v, want errHistoryDisabled", err)
	}
}

func TestDiscoverEphemeris(t *testing.T) {
	tmp := t.TempDir()
	ephe := filepath.Join(tmp, "ephemeris")
	if err := os.MkdirAll(ephe, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ephe, marker), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(tmp, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("configured", func(t *testing.T) {
		got, err := DiscoverEphemeris(ephe)
		if err != nil || got != ephe {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("configured but empty", func(t *testing.T) {
		_, err := DiscoverEphemeris(filepath.Join(tmp, "a"))
		if !errors.Is(err, ephemeris.ErrEphemerisUnavailable) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("walk up from default", func(t *testing.T) {
		t.Chdir(sub)
		got, err := DiscoverEphemeris(defaultEphePath)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := filepath.EvalSymlinks(ephe)
		gotReal, _ := filepath.EvalSymlinks(got)
		if gotReal != want {
			t.Errorf("got %q, want %q", gotReal, want)
		}
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	l.Info().Msg("hidden")
	l.Warn().Str("step", "clear").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("json log line: %v (%q)", err, out)
	}
	if entry["step"] != "clear" || entry["level"] != "warn" {
		t.Errorf("entry = %v", entry)
	}
}
