// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/screencast"
)

// Config represents the application configuration
type Config struct {
	Renderer   RendererConfig   `mapstructure:"renderer"`
	Screencast ScreencastConfig `mapstructure:"screencast"`
	Monitors   MonitorsConfig   `mapstructure:"monitors"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// RendererConfig tunes the repaint path
type RendererConfig struct {
	ForceFullRepaint     bool `mapstructure:"force_full_repaint"`
	DisableDamageHistory bool `mapstructure:"disable_damage_history"`
	SwapChainLength      int  `mapstructure:"swap_chain_length"`
}

type ScreencastConfig struct {
	CursorMode string `mapstructure:"cursor_mode"` // hidden, embedded or metadata
}

// MonitorsConfig selects where the output list comes from
type MonitorsConfig struct {
	Backend        string         `mapstructure:"backend"` // auto, wlr-randr, hyprland, sway or static
	PollIntervalMs int            `mapstructure:"poll_interval_ms"`
	Outputs        []OutputConfig `mapstructure:"outputs"` // Used by the static backend
}

// OutputConfig describes one output of the static backend
type OutputConfig struct {
	Name      string  `mapstructure:"name"`
	Make      string  `mapstructure:"make"`
	Model     string  `mapstructure:"model"`
	Serial    string  `mapstructure:"serial"`
	X         int32   `mapstructure:"x"`
	Y         int32   `mapstructure:"y"`
	Width     int32   `mapstructure:"width"`
	Height    int32   `mapstructure:"height"`
	Refresh   float64 `mapstructure:"refresh"`
	Scale     float64 `mapstructure:"scale"`
	Transform string  `mapstructure:"transform"`
	Enabled   *bool   `mapstructure:"enabled"` // Defaults to true when omitted
}

// IsEnabled reports whether the output is on; an omitted enabled key means on.
// Viper defaults do not reach into array-of-tables entries.
func (o OutputConfig) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Renderer: RendererConfig{
			ForceFullRepaint:     false,
			DisableDamageHistory: false,
			SwapChainLength:      3,
		},
		Screencast: ScreencastConfig{
			CursorMode: "embedded",
		},
		Monitors: MonitorsConfig{
			Backend:        "auto",
			PollIntervalMs: 1000,
			Outputs:        []OutputConfig{},
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("wayout")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/wayout")

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/wayout", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wayout"))
		}

		viper.AddConfigPath(".")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("renderer.force_full_repaint", DefaultConfig.Renderer.ForceFullRepaint)
	viper.SetDefault("renderer.disable_damage_history", DefaultConfig.Renderer.DisableDamageHistory)
	viper.SetDefault("renderer.swap_chain_length", DefaultConfig.Renderer.SwapChainLength)

	viper.SetDefault("screencast.cursor_mode", DefaultConfig.Screencast.CursorMode)

	viper.SetDefault("monitors.backend", DefaultConfig.Monitors.Backend)
	viper.SetDefault("monitors.poll_interval_ms", DefaultConfig.Monitors.PollIntervalMs)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Validate rejects values the renderer, screencast or monitor backends cannot use
func (c *Config) Validate() error {
	if c.Renderer.SwapChainLength < 1 {
		return fmt.Errorf("renderer.swap_chain_length must be at least 1, got %d", c.Renderer.SwapChainLength)
	}
	if _, err := screencast.ParseCursorMode(c.Screencast.CursorMode); err != nil {
		return fmt.Errorf("screencast.cursor_mode: %w", err)
	}

	switch c.Monitors.Backend {
	case "", "auto", "wlr-randr", "hyprland", "sway", "static":
	default:
		return fmt.Errorf("monitors.backend: unknown backend %q", c.Monitors.Backend)
	}
	if c.Monitors.PollIntervalMs <= 0 {
		return fmt.Errorf("monitors.poll_interval_ms must be positive, got %d", c.Monitors.PollIntervalMs)
	}
	for i, o := range c.Monitors.Outputs {
		if o.Name == "" {
			return fmt.Errorf("monitors.outputs[%d]: missing name", i)
		}
		if o.IsEnabled() && (o.Width <= 0 || o.Height <= 0) {
			return fmt.Errorf("monitors.outputs[%d] %s: invalid size %dx%d", i, o.Name, o.Width, o.Height)
		}
		if _, err := gpu.ParseTransform(o.Transform); err != nil {
			return fmt.Errorf("monitors.outputs[%d] %s: %w", i, o.Name, err)
		}
	}
	return nil
}

// StaticOutputs converts the configured outputs for the static backend.
// Call Validate first: unparsable transforms fall back to normal.
func (c *Config) StaticOutputs() []display.OutputInfo {
	outputs := make([]display.OutputInfo, 0, len(c.Monitors.Outputs))
	for _, o := range c.Monitors.Outputs {
		transform, _ := gpu.ParseTransform(o.Transform)
		scale := o.Scale
		if scale <= 0 {
			scale = 1.0
		}
		mode := gpu.ModeInfo{Width: o.Width, Height: o.Height, RefreshRate: o.Refresh, Preferred: true}
		outputs = append(outputs, display.OutputInfo{
			Name:      o.Name,
			Make:      o.Make,
			Model:     o.Model,
			Serial:    o.Serial,
			Enabled:   o.IsEnabled(),
			X:         o.X,
			Y:         o.Y,
			Mode:      mode,
			Modes:     []gpu.ModeInfo{mode},
			Scale:     scale,
			Transform: transform,
		})
	}
	return outputs
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		// If we can't create it (e.g., /etc/wayout needs sudo), provide helpful message
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/wayout/wayout.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/wayout/wayout.toml"
	}

	return filepath.Join(home, ".config", "wayout", "wayout.toml")
}
