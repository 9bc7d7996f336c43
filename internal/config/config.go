// Package config loads the YAML settings file used by the bench command.
// Values missing from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the effective configuration (defaults overlaid with file overrides).
type Config struct {
	Cache CacheConfig `yaml:"cache"`
	Bench BenchConfig `yaml:"bench"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
}

// CacheConfig mirrors the cache.Options fields that make sense in a file.
type CacheConfig struct {
	Name                   string `yaml:"name"`
	TotalCostLimit         int64  `yaml:"total_cost_limit"`
	CountLimit             int    `yaml:"count_limit"`
	EvictsDiscardedContent bool   `yaml:"evicts_discarded_content"`
	SizeHint               int    `yaml:"size_hint"`
}

// BenchConfig describes the synthetic workload.
type BenchConfig struct {
	Workers  int           `yaml:"workers"`
	Duration time.Duration `yaml:"duration"`
	ReadPct  int           `yaml:"read_pct"`
	Keys     int           `yaml:"keys"`
	MaxCost  int64         `yaml:"max_cost"`
	ZipfS    float64       `yaml:"zipf_s"`
	ZipfV    float64       `yaml:"zipf_v"`
	Seed     int64         `yaml:"seed"` // 0 => time-based
}

// HTTPConfig holds listen addresses; empty disables the endpoint.
type HTTPConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	PprofAddr   string `yaml:"pprof_addr"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Name:           "bench",
			TotalCostLimit: 10_000_000,
			CountLimit:     100_000,
		},
		Bench: BenchConfig{
			Workers:  0, // 0 => 2*GOMAXPROCS
			Duration: 10 * time.Second,
			ReadPct:  80,
			Keys:     1_000_000,
			MaxCost:  200,
			ZipfS:    1.1,
			ZipfV:    1.0,
		},
		HTTP: HTTPConfig{MetricsAddr: ":8080"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path and overlays it on Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports settings that cannot drive a run.
func (c Config) Validate() error {
	var errs []error
	if c.Bench.ReadPct < 0 || c.Bench.ReadPct > 100 {
		errs = append(errs, fmt.Errorf("bench.read_pct %d out of [0..100]", c.Bench.ReadPct))
	}
	if c.Bench.Keys <= 0 {
		errs = append(errs, fmt.Errorf("bench.keys must be positive, got %d", c.Bench.Keys))
	}
	if c.Bench.MaxCost < 0 {
		errs = append(errs, fmt.Errorf("bench.max_cost must be >= 0, got %d", c.Bench.MaxCost))
	}
	if c.Bench.ZipfS <= 1 {
		errs = append(errs, fmt.Errorf("bench.zipf_s must be > 1, got %g", c.Bench.ZipfS))
	}
	if c.Bench.ZipfV < 1 {
		errs = append(errs, fmt.Errorf("bench.zipf_v must be >= 1, got %g", c.Bench.ZipfV))
	}
	if c.Bench.Duration <= 0 {
		errs = append(errs, fmt.Errorf("bench.duration must be positive, got %v", c.Bench.Duration))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q (use text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Logger builds a slog.Logger writing to w according to the log section.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, err := parseLevel(l.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
