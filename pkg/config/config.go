// Package config provides configuration loading and management.
package config

import (
	"image/color"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for the preview cache core.
type Config struct {
	// Frame cache
	CacheCapacity   int     `yaml:"cache_capacity"`
	CacheResolution int     `yaml:"cache_resolution"`
	EvictFraction   float64 `yaml:"evict_fraction"`

	// Pre-render scheduler
	PlaybackRangeSec float64 `yaml:"playback_range_sec"`
	ScrubRangeSec    float64 `yaml:"scrub_range_sec"`
	MinCandidates    int     `yaml:"min_candidates"`
	MaxCandidates    int     `yaml:"max_candidates"`

	// Decode cursor
	SequentialThresholdSec float64 `yaml:"sequential_threshold_sec"`
	BufferPoolSize         int     `yaml:"buffer_pool_size"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		CacheCapacity:   300,
		CacheResolution: 30,
		EvictFraction:   0.2,

		PlaybackRangeSec: 1.0,
		ScrubRangeSec:    3.0,
		MinCandidates:    30,
		MaxCandidates:    90,

		SequentialThresholdSec: 2.0,
		BufferPoolSize:         3,

		LogLevel: "info",

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	parse := func(hi, lo byte) uint8 {
		return hexValue(hi)<<4 | hexValue(lo)
	}
	return color.RGBA{
		R: parse(hex[0], hex[1]),
		G: parse(hex[2], hex[3]),
		B: parse(hex[4], hex[5]),
		A: 255,
	}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
