package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/store"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// Duration reads from a string such as "240h" in every config format
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Span is the civil range tables are built for at startup. Start is a
// date, defaulting to yesterday.
type Span struct {
	Start string `json:"start" yaml:"start" toml:"start" validate:"omitempty,datetime=2006-01-02"`
	Days  int    `json:"days" yaml:"days" toml:"days" validate:"gte=1,lte=36525"`
}

type Cache struct {
	// Path enables an on-disk cache. Leave empty and unset InMemory to
	// disable caching.
	Path     string   `json:"path" yaml:"path" toml:"path"`
	InMemory bool     `json:"inMemory" yaml:"inMemory" toml:"inMemory"`
	TTL      Duration `json:"ttl" yaml:"ttl" toml:"ttl"`
}

type Config struct {
	Range      Span             `json:"range" yaml:"range" toml:"range"`
	Buffer     lukashian.Buffer `json:"buffer" yaml:"buffer" toml:"buffer"`
	Widen      Duration         `json:"widen" yaml:"widen" toml:"widen"`
	AutoExtend bool             `json:"autoExtend" yaml:"autoExtend" toml:"autoExtend"`
	Workers    int              `json:"workers" yaml:"workers" toml:"workers" validate:"gte=0,lte=256"`

	Cache Cache `json:"cache" yaml:"cache" toml:"cache"`

	Listen string `json:"listen" yaml:"listen" toml:"listen" validate:"omitempty,hostname_port"`

	// Refresh is a standard cron spec for rebuilding tables around the
	// current date
	Refresh string `json:"refresh" yaml:"refresh" toml:"refresh"`

	Location lukashian.Location `json:"location" yaml:"location" toml:"location"`
	Layout   string             `json:"layout" yaml:"layout" toml:"layout" validate:"omitempty,oneof=beep-first year-first"`
	LogLevel string             `json:"logLevel" yaml:"logLevel" toml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
}

func Default() *Config {
	return &Config{
		Range:      Span{Days: 30},
		Buffer:     lukashian.DefaultBuffer,
		Widen:      Duration{lukashian.DefaultWiden},
		AutoExtend: true,
		Cache:      Cache{TTL: Duration{store.DefaultTTL}},
		Listen:     ":9000",
		Refresh:    "@daily",
		Layout:     "beep-first",
		LogLevel:   "info",
	}
}

// Open reads a config file over the defaults. The format follows the
// file extension: .json, .yaml, .yml or .toml.
func Open(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	config := Default()
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.NewDecoder(f).Decode(config)
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(config)
	case ".toml":
		_, err = toml.NewDecoder(f).Decode(config)
	default:
		return nil, fmt.Errorf("unknown config format %q", ext)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Widen.Duration < 0 {
		return fmt.Errorf("widen %s must not be negative", c.Widen)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache ttl %s must not be negative", c.Cache.TTL)
	}
	if c.Refresh != "" {
		if _, err := cron.ParseStandard(c.Refresh); err != nil {
			return fmt.Errorf("parse refresh schedule: %w", err)
		}
	}

	return nil
}

// CivilSpan returns the configured range in unix milliseconds
func (c *Config) CivilSpan(now time.Time) (int64, int64, error) {
	start, err := StartDate(c.Range.Start, now)
	if err != nil {
		return 0, 0, err
	}
	end := start.AddDate(0, 0, c.Range.Days)
	return start.UnixMilli(), end.UnixMilli(), nil
}

// StartDate parses a YYYY-MM-DD date as UTC midnight. The empty string
// is yesterday.
func StartDate(date string, now time.Time) (time.Time, error) {
	if date == "" {
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	start, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start date: %w", err)
	}
	return start, nil
}

func (c *Config) RefreshSchedule() (cron.Schedule, error) {
	return cron.ParseStandard(c.Refresh)
}

func (c *Config) DateLayout() lukashian.Layout {
	layout, err := lukashian.ParseLayout(c.Layout)
	if err != nil {
		return lukashian.LayoutBeepFirst
	}
	return layout
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CacheEnabled reports whether a table cache is configured
func (c *Config) CacheEnabled() bool {
	return c.Cache.Path != "" || c.Cache.InMemory
}

func (c *Config) StoreConfig(logger *slog.Logger) store.Config {
	return store.Config{
		Path:       c.Cache.Path,
		InMemory:   c.Cache.InMemory,
		TTL:        c.Cache.TTL.Duration,
		GCInterval: 5 * time.Minute,
		Logger:     logger,
	}
}

func (c *Config) CalendarOptions(logger *slog.Logger) lukashian.Options {
	return lukashian.Options{
		Builder:    &lukashian.Builder{Workers: c.Workers, Logger: logger},
		Buffer:     c.Buffer,
		Widen:      c.Widen.Duration,
		AutoExtend: c.AutoExtend,
		Logger:     logger,
	}
}
