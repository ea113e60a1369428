package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nebles/almanac/internal/db"
	"nebles/almanac/internal/ephemeris"
	"nebles/almanac/internal/metrics"
	"nebles/almanac/internal/oracle"
	"nebles/almanac/internal/output"
)

var (
	positionsAt        string
	positionsLat       float64
	positionsLon       float64
	positionsTimeKnown bool
	positionsJSON      bool
	positionsNoClear   bool
	positionsPatterns  bool
)

// openOracle is replaced in tests.
var openOracle = func(configured string, log *zerolog.Logger) (ephemeris.Oracle, error) {
	dir, err := DiscoverEphemeris(configured)
	if err != nil {
		return nil, err
	}
	o, err := oracle.Open(dir, log)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// now is replaced in tests.
var now = time.Now

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Compute positions, signs, retrograde status, aspects and houses and save a snapshot",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

func init() {
	f := positionsCmd.Flags()
	f.StringVar(&positionsAt, "at", "", "Instant to compute, RFC 3339 (default now)")
	f.Float64Var(&positionsLat, "lat", 0, "Observer latitude in degrees, north positive")
	f.Float64Var(&positionsLon, "lon", 0, "Observer longitude in degrees, east positive")
	f.BoolVar(&positionsTimeKnown, "time-known", false, "The time is exact; compute houses when --lat and --lon are given")
	f.BoolVar(&positionsJSON, "json", false, "Print the snapshot as JSON instead of a table")
	f.BoolVar(&positionsNoClear, "no-clear", false, "Keep earlier snapshot files in the output directory")
	f.BoolVar(&positionsPatterns, "patterns", true, "Print aspect clusters, hubs and configurations")
	f.Int("hub-threshold", 0, "Aspect count above which a body is reported as a hub (default 5)")
	_ = viper.BindPFlag("hub_threshold", f.Lookup("hub-threshold"))
	rootCmd.AddCommand(positionsCmd)
}

func positionsQuery(cmd *cobra.Command) (ephemeris.Query, error) {
	q := ephemeris.Query{Time: now().UTC(), TimeKnown: positionsTimeKnown}
	if positionsAt != "" {
		t, err := time.Parse(time.RFC3339, positionsAt)
		if err != nil {
			return q, fmt.Errorf("--at: %w", err)
		}
		q.Time = t.UTC()
	}

	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if latSet != lonSet {
		return q, errors.New("--lat and --lon must be given together")
	}
	if latSet {
		loc := ephemeris.Location{Latitude: positionsLat, Longitude: positionsLon}
		if err := loc.Validate(); err != nil {
			return q, err
		}
		q.Location = &loc
	}
	return q, nil
}

func runPositions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	q, err := positionsQuery(cmd)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	defer func() {
		if appConfig.MetricsFile == "" {
			return
		}
		if err := rec.WriteTextfile(appConfig.MetricsFile); err != nil {
			logger.Warn().Err(err).Str("step", "metrics").Msg("writing metrics")
		}
	}()

	var orc ephemeris.Oracle
	err = rec.ObserveStep("open", func() error {
		orc, err = openOracle(appConfig.EphePath, &logger)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Str("step", "open").Msg("ephemeris unavailable")
		return err
	}

	if positionsNoClear {
		logger.Debug().Str("dir", appConfig.OutputDir).Msg("keeping earlier snapshots")
	} else if err := output.Prepare(appConfig.OutputDir, &logger); err != nil {
		rec.Fail("clear")
		return err
	}

	files := output.NewDirSink(appConfig.OutputDir, &logger)
	sinks := output.Tee{files}

	history, err := OpenHistory()
	if err != nil {
		rec.Fail("history")
		return err
	}
	var recorder *db.SnapshotSink
	if history != nil {
		defer history.Close()
		recorder = &db.SnapshotSink{DB: history, FilePath: files.Path}
		sinks = append(sinks, recorder)
	}

	calc := ephemeris.New(orc, &ephemeris.Config{Logger: &logger})
	var (
		chart *ephemeris.Chart
		snap  *ephemeris.Snapshot
	)
	err = rec.ObserveStep("run", func() error {
		chart, snap, err = calc.Run(ctx, q, sinks)
		return err
	})
	if err != nil {
		return err
	}
	rec.Success(len(chart.Positions), len(chart.Aspects), chart.HasHouses(), now())

	out := cmd.OutOrStdout()
	if positionsJSON {
		data, err := output.Encode(snap)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	printChart(out, chart)
	if positionsPatterns {
		printPatterns(out, ephemeris.AnalyzePatterns(chart, calc.AspectKinds(), appConfig.HubThreshold))
	}
	fmt.Fprintf(out, "\n  Saved %s\n", files.Path())
	if recorder != nil {
		fmt.Fprintf(out, "  Run %s\n", recorder.RunID())
	}
	return nil
}

func printChart(w io.Writer, chart *ephemeris.Chart) {
	fmt.Fprintf(w, "\n  %s  (JD %.5f)\n", ephemeris.FormatTimeUTC(chart.Query.Time), chart.JulianDay)
	if loc := chart.Query.Location; loc != nil {
		fmt.Fprintf(w, "  Location: lat %.4f lon %.4f\n", loc.Latitude, loc.Longitude)
	}

	fmt.Fprintln(w, "\n  POSITIONS")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	for _, p := range chart.Positions {
		retro := ""
		if p.Retrograde {
			retro = " R"
		}
		house := ""
		if p.House > 0 {
			house = fmt.Sprintf("  house %d", p.House)
		}
		fmt.Fprintf(w, "  %-11s %2d°%02d' %-12s %10.6f%s%s\n",
			p.Body, int(p.Degree), int(p.Minute), p.Sign, p.Longitude, retro, house)
	}

	if chart.HasHouses() {
		fmt.Fprintln(w, "\n  HOUSE CUSPS (Placidus)")
		fmt.Fprintln(w, "  ────────────────────────────────────────")
		for i, c := range chart.Cusps {
			sign := ephemeris.SignOf(c)
			fmt.Fprintf(w, "  %2d  %2d° %-12s %10.6f\n", i+1, int(math.Mod(c, 30)), sign, c)
		}
	}

	fmt.Fprintf(w, "\n  ASPECTS (%d)\n", len(chart.Aspects))
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	for _, a := range chart.Aspects {
		fmt.Fprintf(w, "  %-11s %-11s %-12s %6.2f°\n", a.Body1, a.Body2, a.Kind, a.Angle)
	}
}

func printPatterns(w io.Writer, p *ephemeris.AspectPatterns) {
	fmt.Fprintln(w, "\n  PATTERNS")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	kinds := make([]string, 0, len(p.KindCounts))
	for _, kc := range p.KindCounts {
		kinds = append(kinds, fmt.Sprintf("%s=%d", kc.Kind, kc.Count))
	}
	fmt.Fprintf(w, "  Aspects: %d  %s\n", p.TotalAspects, strings.Join(kinds, " "))

	for _, c := range p.Clusters {
		fmt.Fprintf(w, "  Cluster of %d (%d aspects): %s\n", len(c.Bodies), c.Aspects, strings.Join(c.Bodies, ", "))
	}
	if len(p.Unaspected) > 0 {
		fmt.Fprintf(w, "  Unaspected: %s\n", strings.Join(p.Unaspected, ", "))
	}
	if len(p.Hubs) > 0 {
		fmt.Fprintln(w, "\n  Hubs (aspects > threshold):")
		for _, h := range p.Hubs {
			fmt.Fprintf(w, "    %s aspects=%d in %s\n", h.Body, h.Degree, h.Sign)
		}
	}
	for _, c := range p.Configurations {
		line := fmt.Sprintf("  %s: %s", c.Name, strings.Join(c.Bodies, ", "))
		if c.Apex != "" {
			line += " (apex " + c.Apex + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// printJSON writes v with the indentation used for snapshot files.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
