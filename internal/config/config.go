// Package config reads lodestar settings from the environment.
//
// Values come from LODESTAR_* variables. A .env file, when present, fills
// in variables the process environment does not already set.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings shared by every command.
type Config struct {
	DBPath      string `env:"LODESTAR_DB" envDefault:"lodestar.db"`
	ContentDir  string `env:"LODESTAR_CONTENT" envDefault:"content"`
	Slot        string `env:"LODESTAR_SLOT" envDefault:"default"`
	LogLevel    string `env:"LODESTAR_LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"LODESTAR_LOG_FORMAT" envDefault:"text"`
	MetricsFile string `env:"LODESTAR_METRICS_FILE"`
}

// Load reads the optional dotenv file at envFile, then parses the
// environment. A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	var cfg Config
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the log settings.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid LODESTAR_LOG_FORMAT %q: must be text or json", c.LogFormat)
	}
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("invalid LODESTAR_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds the slog logger described by the config, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
