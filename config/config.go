// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Globe     GlobeConfig     `yaml:"globe"`
	Raster    RasterConfig    `yaml:"raster"`
	Field     FieldConfig     `yaml:"field"`
	Particles ParticlesConfig `yaml:"particles"`
	Agent     AgentConfig     `yaml:"agent"`
	Products  ProductsConfig  `yaml:"products"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GlobeConfig holds view settings for the globe projection.
type GlobeConfig struct {
	Scale     float64 `yaml:"scale"`     // Projection radius in pixels (0 = fit to screen)
	MinScale  float64 `yaml:"min_scale"` // Zoom lower bound
	MaxScale  float64 `yaml:"max_scale"` // Zoom upper bound
	Longitude float64 `yaml:"longitude"` // Initial center longitude in degrees
	Latitude  float64 `yaml:"latitude"`  // Initial center latitude in degrees
}

// RasterConfig holds irregular-mesh rasterization parameters.
// Both values are tuning constants with no principled derivation, so they
// are configurable rather than hardcoded.
type RasterConfig struct {
	CellsPerDegree  int `yaml:"cells_per_degree"`  // Oversampling factor for scattered cells
	FillNeighborMin int `yaml:"fill_neighbor_min"` // Filled 4-neighbors required to fill a hole
}

// FieldConfig holds field interpolation parameters.
type FieldConfig struct {
	BatchBudgetMS int `yaml:"batch_budget_ms"` // Wall-clock budget per interpolation batch
	BatchPauseMS  int `yaml:"batch_pause_ms"`  // Pause between batches
}

// ParticlesConfig holds particle animation parameters.
type ParticlesConfig struct {
	Multiplier      float64 `yaml:"multiplier"`        // Particles per pixel of viewport width
	MaxCount        int     `yaml:"max_count"`         // Hard cap on pool size
	MaxAge          int     `yaml:"max_age"`           // Frames before relocation
	FrameIntervalMS int     `yaml:"frame_interval_ms"` // Simulation tick interval
	VelocityScale   float64 `yaml:"velocity_scale"`    // Pixels per frame per unit speed, per pixel of viewport height
	SpeedBuckets    int     `yaml:"speed_buckets"`     // Quantization levels for stroke batching
}

// AgentConfig holds task-coordination parameters.
type AgentConfig struct {
	DebounceMS int `yaml:"debounce_ms"` // Coalescing window for rapid resubmissions
}

// ProductsConfig holds product factory parameters.
type ProductsConfig struct {
	CacheSize int `yaml:"cache_size"` // LRU entries for built products
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // Samples in the rolling perf window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BatchBudget   time.Duration // Field.BatchBudgetMS as a duration
	BatchPause    time.Duration // Field.BatchPauseMS as a duration
	FrameInterval time.Duration // Particles.FrameIntervalMS as a duration
	Debounce      time.Duration // Agent.DebounceMS as a duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.BatchBudget = time.Duration(c.Field.BatchBudgetMS) * time.Millisecond
	c.Derived.BatchPause = time.Duration(c.Field.BatchPauseMS) * time.Millisecond
	c.Derived.FrameInterval = time.Duration(c.Particles.FrameIntervalMS) * time.Millisecond
	c.Derived.Debounce = time.Duration(c.Agent.DebounceMS) * time.Millisecond

	// Globe scale defaults to fitting the smaller screen axis
	if c.Globe.Scale == 0 {
		smaller := c.Screen.Width
		if c.Screen.Height < smaller {
			smaller = c.Screen.Height
		}
		c.Globe.Scale = float64(smaller) / 2 * 0.9
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
