// Package config holds the viper-backed application configuration.
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
}

// LoggerConfig controls the global zap logger and optional file rotation.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the Chrome process launched for the session.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU     bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args           []string `mapstructure:"args" yaml:"args"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	UserAgent      string   `mapstructure:"user_agent" yaml:"user_agent"`
	MaxSessions    int64    `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// NetworkConfig controls navigation and traffic capture behavior.
type NetworkConfig struct {
	// NavigationTimeout is the upper bound for reaching network quiescence
	// after navigation. Exceeding it is a fatal navigation error.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// SettleDelay is the fixed post-navigation wait applied before any
	// measurement. It stands in for a true "render complete" signal, which
	// the target page does not expose, and is a known source of flakiness.
	SettleDelay          time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	QuietPeriod          time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	CaptureRequestBodies bool          `mapstructure:"capture_request_bodies" yaml:"capture_request_bodies"`
}

// CaptureConfig controls one reconnaissance run.
type CaptureConfig struct {
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	TopColors int    `mapstructure:"top_colors" yaml:"top_colors"`
	// ScreenshotPacing is the minimum interval between region screenshot
	// attempts, enforced with a rate limiter to avoid hammering the CDP
	// endpoint with back-to-back capture commands.
	ScreenshotPacing time.Duration `mapstructure:"screenshot_pacing" yaml:"screenshot_pacing"`
}

// SetDefaults registers the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "tradelens")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.viewport_width", 1440)
	v.SetDefault("browser.viewport_height", 900)
	v.SetDefault("browser.max_sessions", 2)

	v.SetDefault("network.navigation_timeout", 45*time.Second)
	v.SetDefault("network.settle_delay", 5*time.Second)
	v.SetDefault("network.quiet_period", 1500*time.Millisecond)
	v.SetDefault("network.capture_request_bodies", true)

	v.SetDefault("capture.output_dir", "./recon")
	v.SetDefault("capture.top_colors", 10)
	v.SetDefault("capture.screenshot_pacing", 150*time.Millisecond)
}

// Load unmarshals the viper state into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize applies derived defaults and expands user-relative paths.
func (c *Config) normalize() error {
	if c.Capture.TopColors <= 0 {
		c.Capture.TopColors = 10
	}
	if c.Network.NavigationTimeout <= 0 {
		c.Network.NavigationTimeout = 45 * time.Second
	}
	if c.Network.QuietPeriod <= 0 {
		c.Network.QuietPeriod = 1500 * time.Millisecond
	}
	if c.Browser.MaxSessions <= 0 {
		c.Browser.MaxSessions = 1
	}

	if c.Capture.OutputDir != "" {
		expanded, err := homedir.Expand(c.Capture.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to expand output directory %q: %w", c.Capture.OutputDir, err)
		}
		c.Capture.OutputDir = expanded
	}
	return nil
}
