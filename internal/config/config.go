package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned by Load and Save when no config path is given.
var ErrEmptyPath = errors.New("config path is empty")

// PeriodConfig describes one agenda item of the bell schedule.
type PeriodConfig struct {
	// Label is the human-readable name ("Period 1", "Lunch").
	Label string `yaml:"label" json:"label"`
	// Kind is "period" or "break". Empty means "period".
	Kind string `yaml:"kind" json:"kind"`
	// Start and End are "HH:MM" on a 24-hour clock.
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// CaptureConfig controls periodic PNG snapshots of the board page.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL of the page to capture. Empty means the local board at Listen.
	URL string `yaml:"url" json:"url"`
	// OutputPath is where the PNG is written and what /preview.png serves.
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// ICSExportConfig controls the /calendar.ics export.
type ICSExportConfig struct {
	// Name is used as the calendar's X-WR-CALNAME.
	Name string `yaml:"name" json:"name"`
	// RRule, if set, is attached to every exported event
	// (e.g. "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR").
	RRule string `yaml:"rrule" json:"rrule"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the board and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the wall clock is read in
	// (e.g. "America/Los_Angeles"). Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// SchoolName is shown in the board header.
	SchoolName string `yaml:"school_name" json:"school_name"`

	// TickInterval is the clock cadence. Defaults to one second.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timetable is the day's bell schedule. When empty the compiled-in
	// reference timetable is used.
	Timetable []PeriodConfig `yaml:"timetable" json:"timetable"`

	// TimetableICS, when set, replaces Timetable with the events of an
	// iCalendar file path or http(s) URL.
	TimetableICS string `yaml:"timetable_ics,omitempty" json:"timetable_ics,omitempty"`

	// CacheDir keeps the last good copy of a TimetableICS feed.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "*/5 * * * *")
	// used for periodic PNG snapshots.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Capture   CaptureConfig   `yaml:"capture" json:"capture"`
	ICSExport ICSExportConfig `yaml:"ics_export" json:"ics_export"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "America/Los_Angeles"
	defaultSchoolName   = "Mission San Jose High"
	defaultTickInterval = time.Second
	defaultRefreshCron  = "*/5 * * * *"
	defaultCapturePath  = "/var/lib/bellboard/preview.png"
	defaultCacheDir     = "/var/lib/bellboard/cache"
	defaultCaptureW     = 860
	defaultCaptureH     = 1400
	defaultICSName      = "Bell Schedule"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		SchoolName:   defaultSchoolName,
		TickInterval: defaultTickInterval,
		LogLevel:     "info",
		Timetable:    []PeriodConfig{},
		CacheDir:     defaultCacheDir,
		RefreshCron:  defaultRefreshCron,
		Capture: CaptureConfig{
			Enabled:    false,
			OutputPath: defaultCapturePath,
			Width:      defaultCaptureW,
			Height:     defaultCaptureH,
		},
		ICSExport: ICSExportConfig{Name: defaultICSName},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.SchoolName == "" {
		c.SchoolName = defaultSchoolName
	}
	// Sub-second ticks would only burn CPU; the board has one-second resolution.
	if c.TickInterval < time.Second {
		c.TickInterval = defaultTickInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timetable == nil {
		c.Timetable = []PeriodConfig{}
	}
	for i := range c.Timetable {
		if c.Timetable[i].Kind == "" {
			c.Timetable[i].Kind = "period"
		}
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.Capture.OutputPath == "" {
		c.Capture.OutputPath = defaultCapturePath
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultCaptureW
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultCaptureH
	}
	if c.ICSExport.Name == "" {
		c.ICSExport.Name = defaultICSName
	}
}

// Location resolves Timezone. Empty resolves to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path and normalizes it. On first run, when
// path does not exist yet, the defaults are written there (0600) and
// returned; a failed write still returns the defaults alongside the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, Save(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save normalizes cfg and writes it to path as YAML, replacing any existing
// file atomically. The parent directory is created 0700 if missing.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o600)
}

// Save is shorthand for the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial config.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bellboard-config-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
