// Package config holds application configuration for the biotel bridge.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/biotel/biotel/internal/protocol"
)

// Config holds application configuration. Zero values are filled from
// the default tags; a YAML file overrides them field by field.
type Config struct {
	LogLevel       string        `yaml:"log_level" default:"info"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	PublishPeriod  time.Duration `yaml:"publish_period" default:"25ms"`
	WindowSize     int           `yaml:"window_size" default:"100"`
	BufferCapacity int           `yaml:"buffer_capacity" default:"100"`
	Mode           string        `yaml:"mode" default:"both"`
	Simulated      bool          `yaml:"simulated"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	return c
}

// rawConfig mirrors Config with optional fields, so a file only
// overrides what it mentions. Durations are accepted in time.Duration
// string form ("25ms"), which yaml cannot decode natively.
type rawConfig struct {
	LogLevel       *string `yaml:"log_level"`
	ConnectTimeout *string `yaml:"connect_timeout"`
	PublishPeriod  *string `yaml:"publish_period"`
	WindowSize     *int    `yaml:"window_size"`
	BufferCapacity *int    `yaml:"buffer_capacity"`
	Mode           *string `yaml:"mode"`
	Simulated      *bool   `yaml:"simulated"`
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}
	if raw.ConnectTimeout != nil {
		if c.ConnectTimeout, err = time.ParseDuration(*raw.ConnectTimeout); err != nil {
			return nil, fmt.Errorf("invalid connect_timeout: %w", err)
		}
	}
	if raw.PublishPeriod != nil {
		if c.PublishPeriod, err = time.ParseDuration(*raw.PublishPeriod); err != nil {
			return nil, fmt.Errorf("invalid publish_period: %w", err)
		}
	}
	if raw.WindowSize != nil {
		c.WindowSize = *raw.WindowSize
	}
	if raw.BufferCapacity != nil {
		c.BufferCapacity = *raw.BufferCapacity
	}
	if raw.Mode != nil {
		c.Mode = *raw.Mode
	}
	if raw.Simulated != nil {
		c.Simulated = *raw.Simulated
	}

	if _, err := c.ModeByte(); err != nil {
		return nil, err
	}
	return c, nil
}

// ModeByte translates the textual acquisition mode into its wire value.
func (c *Config) ModeByte() (byte, error) {
	switch c.Mode {
	case "result":
		return protocol.ModeResultOnly, nil
	case "raw":
		return protocol.ModeRawOnly, nil
	case "both", "":
		return protocol.ModeBoth, nil
	default:
		return 0, fmt.Errorf("invalid mode %q: use result, raw, or both", c.Mode)
	}
}

// NewLogger creates a logger configured from LogLevel.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
