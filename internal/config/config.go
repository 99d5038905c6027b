// Package config loads and validates the application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/catalog"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

// Config represents the complete application configuration.
type Config struct {
	Observer   ObserverConfig   `json:"observer"`
	Clock      ClockConfig      `json:"clock"`
	Render     RenderConfig     `json:"render"`
	Trajectory TrajectoryConfig `json:"trajectory"`
	Catalog    CatalogConfig    `json:"catalog"`
	Logging    LoggingConfig    `json:"logging"`
}

// ObserverConfig contains the observer's geographic location.
type ObserverConfig struct {
	// Name is a friendly identifier for this location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"lat"`

	// Longitude in decimal degrees, positive east
	Longitude float64 `json:"lon"`

	// Altitude in meters above sea level
	Altitude float64 `json:"alt"`

	// UTCOffset is the civil time zone offset in hours (-14 to +14)
	UTCOffset float64 `json:"utc_offset"`
}

// ClockConfig controls the simulation clock.
type ClockConfig struct {
	// Start is an RFC3339 time or "now"
	Start string `json:"start"`

	// TimeScale is simulated seconds per real second
	TimeScale float64 `json:"time_scale"`

	// TickMS is the UI refresh interval in milliseconds
	TickMS int `json:"tick_ms"`
}

// RenderConfig controls placement on the sky sphere.
type RenderConfig struct {
	SkyRadius    float64 `json:"sky_radius"`
	DrawMode     string  `json:"draw_mode"` // "same" or "actual"
	ParsecScale  float64 `json:"parsec_scale"`
	MinRadius    float64 `json:"min_radius"`
	MaxMagnitude float64 `json:"max_magnitude"`
}

// TrajectoryConfig sets the default trajectory window.
type TrajectoryConfig struct {
	Segments         int     `json:"segments"`
	DurationHours    float64 `json:"duration_hours"`
	StartOffsetHours float64 `json:"start_offset_hours"`
	Strategy         string  `json:"strategy"` // "direct" or "rigid"
	Workers          int     `json:"workers"`
	CacheSize        int     `json:"cache_size"`
}

// CatalogConfig points at external catalog files. Empty paths use the
// built-in data.
type CatalogConfig struct {
	StarsPath string `json:"stars_path"`
	LinesPath string `json:"lines_path"`
	RAUnit    string `json:"ra_unit"` // "deg" or "hours"
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Observer: ObserverConfig{
			Name:      "Seoul",
			Latitude:  37.5665,
			Longitude: 126.9780,
			Altitude:  38,
			UTCOffset: 9,
		},
		Clock: ClockConfig{
			Start:     "now",
			TimeScale: 1,
			TickMS:    250,
		},
		Render: RenderConfig{
			SkyRadius:    500,
			DrawMode:     "same",
			ParsecScale:  1,
			MinRadius:    50,
			MaxMagnitude: 6.5,
		},
		Trajectory: TrajectoryConfig{
			Segments:         trajectory.DefaultSegments,
			DurationHours:    trajectory.DefaultDurationHours,
			StartOffsetHours: 0,
			Strategy:         "direct",
			Workers:          4,
			CacheSize:        trajectory.DefaultCacheSize,
		},
		Catalog: CatalogConfig{
			RAUnit: "deg",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a JSON file on top of the defaults.
// If the file doesn't exist, returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks ranges and enum values. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	o := c.Observer
	if !finite(o.Latitude) || o.Latitude < -90 || o.Latitude > 90 {
		bad("observer.lat %v out of range [-90, 90]", o.Latitude)
	}
	if !finite(o.Longitude) || o.Longitude < -360 || o.Longitude > 360 {
		bad("observer.lon %v out of range [-360, 360]", o.Longitude)
	}
	if !finite(o.UTCOffset) || o.UTCOffset < -14 || o.UTCOffset > 14 {
		bad("observer.utc_offset %v out of range [-14, 14]", o.UTCOffset)
	}

	if !finite(c.Clock.TimeScale) {
		bad("clock.time_scale must be finite")
	}
	if c.Clock.TickMS <= 0 {
		bad("clock.tick_ms must be positive")
	}
	if _, err := c.StartTime(time.Now()); err != nil {
		bad("clock.start: %v", err)
	}

	r := c.Render
	if !(r.SkyRadius > 0) {
		bad("render.sky_radius must be positive")
	}
	if _, err := scene.ParseDrawMode(r.DrawMode); err != nil {
		bad("render.draw_mode: %v", err)
	}
	if r.ParsecScale < 0 || r.MinRadius < 0 {
		bad("render.parsec_scale and render.min_radius must not be negative")
	}

	tc := c.Trajectory
	if tc.Segments < 1 {
		bad("trajectory.segments must be at least 1")
	}
	if !(tc.DurationHours > 0) {
		bad("trajectory.duration_hours must be positive")
	}
	if _, err := trajectory.ParseStrategy(tc.Strategy); err != nil {
		bad("trajectory.strategy: %v", err)
	}
	if tc.Workers < 0 || tc.CacheSize < 0 {
		bad("trajectory.workers and trajectory.cache_size must not be negative")
	}

	if _, err := catalog.ParseRAUnit(c.Catalog.RAUnit); err != nil {
		bad("catalog.ra_unit: %v", err)
	}

	return errors.Join(errs...)
}

// ApplyEnvironmentOverrides applies SKYDOME_* environment variables. Values
// that do not parse are ignored and named in the returned error.
func (c *Config) ApplyEnvironmentOverrides() error {
	var errs []error
	float := func(key string, dst *float64) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}

	float("SKYDOME_LAT", &c.Observer.Latitude)
	float("SKYDOME_LON", &c.Observer.Longitude)
	float("SKYDOME_UTC_OFFSET", &c.Observer.UTCOffset)
	float("SKYDOME_TIME_SCALE", &c.Clock.TimeScale)
	if lvl := os.Getenv("SKYDOME_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	return errors.Join(errs...)
}

// ObserverValue returns the astro observer for this config.
func (c *Config) ObserverValue() astro.Observer {
	return astro.Observer{
		LatDeg:    c.Observer.Latitude,
		LonDeg:    c.Observer.Longitude,
		AltitudeM: c.Observer.Altitude,
		UTCOffset: c.Observer.UTCOffset,
		Name:      c.Observer.Name,
	}.Normalized()
}

// StartTime resolves clock.start. "now" and "" use now in the observer's
// zone; RFC3339 times are converted to that zone.
func (c *Config) StartTime(now time.Time) (time.Time, error) {
	zone := time.FixedZone(zoneName(c.Observer.UTCOffset), int(math.Round(c.Observer.UTCOffset*3600)))
	s := strings.TrimSpace(c.Clock.Start)
	if s == "" || strings.EqualFold(s, "now") {
		return now.In(zone), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	return t.In(zone), nil
}

// TickInterval returns the UI refresh interval.
func (c *Config) TickInterval() time.Duration {
	if c.Clock.TickMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Clock.TickMS) * time.Millisecond
}

// SceneOptions converts the render section.
func (c *Config) SceneOptions() (scene.Options, error) {
	mode, err := scene.ParseDrawMode(c.Render.DrawMode)
	if err != nil {
		return scene.Options{}, err
	}
	return scene.Options{
		Radius:       c.Render.SkyRadius,
		Mode:         mode,
		ParsecScale:  c.Render.ParsecScale,
		MinRadius:    c.Render.MinRadius,
		BaseScale:    1,
		MaxMagnitude: c.Render.MaxMagnitude,
	}, nil
}

// Window converts the trajectory section.
func (c *Config) Window() (trajectory.Window, error) {
	s, err := trajectory.ParseStrategy(c.Trajectory.Strategy)
	if err != nil {
		return trajectory.Window{}, err
	}
	return trajectory.Window{
		StartOffsetHours: c.Trajectory.StartOffsetHours,
		DurationHours:    c.Trajectory.DurationHours,
		Segments:         c.Trajectory.Segments,
		Strategy:         s,
	}, nil
}

// LogLevel parses the logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

func zoneName(offset float64) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	mins := int(math.Round(offset * 60))
	return fmt.Sprintf("UTC%s%02d:%02d", sign, mins/60, mins%60)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
