// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/faultline/internal/core"
)

// Config is the top-level static configuration. Maps to the `faultline:`
// root key in YAML; env vars use the FAULTLINE_ prefix via the key
// replacer (e.g. FAULTLINE_LOG_LEVEL).
type Config struct {
	// Listen is the device-facing TCP address.
	Listen string `mapstructure:"listen" yaml:"listen"`
	// Upstream is the host-facing TCP address the proxy connects to.
	Upstream string `mapstructure:"upstream" yaml:"upstream"`

	// EventQueueSize bounds the protocol event queue.
	EventQueueSize int `mapstructure:"event_queue_size" yaml:"event_queue_size"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// DeviceToHost and HostToDevice are the per-direction fault filter
	// stacks, applied in order.
	DeviceToHost []FilterConfig `mapstructure:"device_to_host" yaml:"device_to_host"`
	HostToDevice []FilterConfig `mapstructure:"host_to_device" yaml:"host_to_device"`
}

// FilterConfig selects one filter and carries its parameters. All keys
// besides `type` are filter-specific and are decoded by the filter
// factory.
type FilterConfig struct {
	Type   string         `mapstructure:"type" yaml:"type"`
	Params map[string]any `mapstructure:",remain" yaml:"params,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`   // debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains log output destinations beyond stdout.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// configRoot is the top-level wrapper matching the YAML structure
// `faultline: ...`.
type configRoot struct {
	Faultline Config `mapstructure:"faultline"`
}

// Load loads configuration from file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variable overrides: key "faultline.log.level" maps to
	// env "FAULTLINE_LOG_LEVEL" through the replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Faultline

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values. All keys use the "faultline." prefix
// to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("faultline.event_queue_size", 1024)

	// Log defaults
	v.SetDefault("faultline.log.level", "info")
	v.SetDefault("faultline.log.format", "text")
	v.SetDefault("faultline.log.outputs.file.enabled", false)
	v.SetDefault("faultline.log.outputs.file.path", "/var/log/faultline/faultline.log")
	v.SetDefault("faultline.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("faultline.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("faultline.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("faultline.log.outputs.file.rotation.compress", true)

	// Metrics defaults
	v.SetDefault("faultline.metrics.enabled", false)
	v.SetDefault("faultline.metrics.listen", ":9091")
	v.SetDefault("faultline.metrics.path", "/metrics")
}

// Validate checks structural validity. Filter parameter validation
// happens in the filter constructors at chain build time.
func (cfg *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: log format %q (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	if cfg.Listen == "" {
		return fmt.Errorf("%w: listen address is required", core.ErrConfigInvalid)
	}
	if cfg.Upstream == "" {
		return fmt.Errorf("%w: upstream address is required", core.ErrConfigInvalid)
	}
	if cfg.EventQueueSize <= 0 {
		return fmt.Errorf("%w: event_queue_size must be positive, got %d", core.ErrConfigInvalid, cfg.EventQueueSize)
	}

	for _, stack := range [][]FilterConfig{cfg.DeviceToHost, cfg.HostToDevice} {
		for i, fc := range stack {
			if fc.Type == "" {
				return fmt.Errorf("%w: filter %d is missing a type", core.ErrConfigInvalid, i)
			}
		}
	}
	return nil
}
