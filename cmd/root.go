package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nebles/almanac/internal/config"
	"nebles/almanac/internal/db"
	"nebles/almanac/internal/ephemeris"
)

// defaultEphePath mirrors the ephe_path default in internal/config.
const defaultEphePath = "./ephemeris"

// marker is the file whose presence identifies an ephemeris directory.
const marker = "VSOP87B.ear"

var (
	cfgFile string
	initErr error

	appConfig config.Config
	logger    = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "almanac",
	Short: "Planetary positions, houses and aspects as JSON snapshots",
	Long: "Almanac computes the geocentric positions of 17 bodies, their signs, retrograde status,\n" +
		"Placidus houses and aspects, and writes one JSON snapshot per run.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initErr != nil {
			return initErr
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default .almanac.yaml)")
	pf.String("ephe-path", "", "Directory holding the VSOP87B files (default ./ephemeris)")
	pf.String("output-dir", "", "Directory for snapshot files, cleared before each run (default ./output)")
	pf.String("db", "", "Path to the run history database (empty disables history)")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file after each run")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "Log format: console or json (default console)")

	for key, flag := range map[string]string{
		"ephe_path":    "ephe-path",
		"output_dir":   "output-dir",
		"db_path":      "db",
		"metrics_file": "metrics-file",
		"log.level":    "log-level",
		"log.format":   "log-format",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	initErr = config.Init(cfgFile)
}

func newLogger(w io.Writer, lc config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if lc.Format == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
}

// DiscoverEphemeris finds the ephemeris directory using priority:
// configured path > walk-up > XDG fallback. A path set away from the default must
// hold the data files; the fallbacks are only searched for the default.
func DiscoverEphemeris(configured string) (string, error) {
	// 1. Configured (flag, env or config file)
	if configured != "" {
		if hasMarker(configured) {
			return configured, nil
		}
		if filepath.Clean(configured) != filepath.Clean(defaultEphePath) {
			return "", fmt.Errorf("%w: no %s in --ephe-path %s", ephemeris.ErrEphemerisUnavailable, marker, configured)
		}
	}

	// 2. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, "ephemeris")
			if hasMarker(candidate) {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 3. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "almanac", "ephemeris")
		if hasMarker(xdgPath) {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("%w: no VSOP87B files found (set ALMANAC_EPHE_PATH, use --ephe-path, or run below a directory containing ephemeris/)",
		ephemeris.ErrEphemerisUnavailable)
}

func hasMarker(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, marker))
	return err == nil
}

// OpenHistory opens the run history database, or returns nil when history is disabled.
func OpenHistory() (*db.DB, error) {
	if appConfig.DBPath == "" {
		return nil, nil
	}
	return db.OpenDB(appConfig.DBPath)
}
