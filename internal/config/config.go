// Package config loads mask server settings from an optional TOML file and
// the environment.
//
// Precedence, lowest to highest: built-in defaults, the TOML file, then
// MASK_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ironsheep/mask-tools-mcp/internal/mask"
)

// Environment variables read by Load.
const (
	EnvConfig       = "MASK_MCP_CONFIG"
	EnvWidth        = "MASK_MCP_WIDTH"
	EnvHeight       = "MASK_MCP_HEIGHT"
	EnvSaveInterval = "MASK_MCP_SAVE_INTERVAL_MS"
	EnvBrushColor   = "MASK_MCP_BRUSH_COLOR"
	EnvBrushSize    = "MASK_MCP_BRUSH_SIZE"
	EnvOutput       = "MASK_MCP_OUTPUT"
	EnvLogLevel     = "MASK_MCP_LOG_LEVEL"
)

// Brush is the initial brush configuration.
type Brush struct {
	Color int     `toml:"color"`
	Size  float64 `toml:"size"`
}

// Config holds every server setting.
type Config struct {
	// Width and Height size the mask buffer.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// SaveIntervalMS is the minimum time between two mask saves.
	SaveIntervalMS int `toml:"save_interval_ms"`

	Brush Brush `toml:"brush"`

	// OutputPath, when set, receives every saved mask as a PNG file.
	OutputPath string `toml:"output_path"`

	// LogLevel is "info" or "debug".
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Width:          512,
		Height:         512,
		SaveIntervalMS: int(mask.DefaultSaveInterval / time.Millisecond),
		Brush: Brush{
			Color: mask.DefaultBrushColor,
			Size:  mask.DefaultBrushSize,
		},
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the TOML file at path (if path is not
// empty) and the environment. An empty path falls back to MASK_MCP_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &c.Width},
		{EnvHeight, &c.Height},
		{EnvSaveInterval, &c.SaveIntervalMS},
		{EnvBrushColor, &c.Brush.Color},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := lookup(EnvBrushSize); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBrushSize, err)
		}
		c.Brush.Size = f
	}
	if v, ok := lookup(EnvOutput); ok && v != "" {
		c.OutputPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("mask size %dx%d must not be negative", c.Width, c.Height)
	}
	if (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("mask size %dx%d: width and height must both be zero or both positive", c.Width, c.Height)
	}
	if c.SaveIntervalMS <= 0 {
		return errors.New("save_interval_ms must be positive")
	}
	if err := c.BrushConfig().Validate(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "", "info", "debug":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// SaveInterval returns SaveIntervalMS as a duration.
func (c Config) SaveInterval() time.Duration {
	return time.Duration(c.SaveIntervalMS) * time.Millisecond
}

// BrushConfig converts the brush section to the editor type.
func (c Config) BrushConfig() mask.BrushConfig {
	return mask.BrushConfig{Color: c.Brush.Color, Size: c.Brush.Size}
}
