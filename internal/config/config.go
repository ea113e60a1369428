package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// Config holds all runtime configuration for an almanac run.
// Values are populated from .almanac.yaml, ALMANAC_* env vars, .env and CLI flags.
type Config struct {
	EphePath     string    `mapstructure:"ephe_path"`
	OutputDir    string    `mapstructure:"output_dir"`
	DBPath       string    `mapstructure:"db_path"`
	MetricsFile  string    `mapstructure:"metrics_file"`
	HubThreshold int       `mapstructure:"hub_threshold"`
	Log          LogConfig `mapstructure:"log"`
}

// Init points viper at the config file, environment and an optional .env file.
// A missing config file is fine; a broken one is not.
func Init(cfgFile string) error {
	// .env values become plain environment variables; real env wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".almanac")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ALMANAC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("ephe_path", "./ephemeris")
	viper.SetDefault("output_dir", "./output")
	viper.SetDefault("db_path", "")
	viper.SetDefault("metrics_file", "")
	viper.SetDefault("hub_threshold", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that have a fixed domain.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.HubThreshold < 0 {
		return fmt.Errorf("hub_threshold must not be negative, got %d", c.HubThreshold)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
