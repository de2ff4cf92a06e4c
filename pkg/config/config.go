package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/plajta/plajtime/internal/gatt"
	"github.com/plajta/plajtime/internal/timepayload"
	"github.com/plajta/plajtime/scanner"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel          string        `yaml:"log_level" default:"info"`
	TargetName        string        `yaml:"target_name" default:"PlajTime"`
	ScanTimeout       time.Duration `yaml:"scan_timeout" default:"10s"`
	ScanMode          string        `yaml:"scan_mode" default:"low-latency"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" default:"30s"`
	WeekdayConvention string        `yaml:"weekday_convention" default:"sunday-first"`
	AdjustReason      uint8         `yaml:"adjust_reason" default:"0"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultConfigPath returns ~/.config/plajtime/config.yaml, or "" when there is no home directory
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "plajtime", "config.yaml")
}

// Load reads a YAML config file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadOptional loads path if it exists and falls back to defaults otherwise
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks the config for invalid values
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.TargetName == "" {
		return fmt.Errorf("target_name must not be empty")
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("scan_timeout must be > 0, got %s", c.ScanTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be > 0, got %s", c.ConnectTimeout)
	}
	if _, err := scanner.ParseScanMode(c.ScanMode); err != nil {
		return fmt.Errorf("scan_mode: %w", err)
	}
	if _, err := timepayload.ParseWeekdayConvention(c.WeekdayConvention); err != nil {
		return fmt.Errorf("weekday_convention: %w", err)
	}
	return nil
}

// Level returns the parsed log level, info when it is invalid
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// ScanRequest builds the scan request described by the config. Call Validate first.
func (c *Config) ScanRequest() scanner.ScanRequest {
	mode, _ := scanner.ParseScanMode(c.ScanMode)
	return scanner.ScanRequest{
		TargetName: c.TargetName,
		Timeout:    c.ScanTimeout,
		Mode:       mode,
	}
}

// EncodeOptions returns the payload options described by the config
func (c *Config) EncodeOptions() []timepayload.Option {
	weekdays, _ := timepayload.ParseWeekdayConvention(c.WeekdayConvention)
	return []timepayload.Option{
		timepayload.WithWeekdayConvention(weekdays),
		timepayload.WithAdjustReason(timepayload.AdjustReason(c.AdjustReason)),
	}
}

// SessionOptions returns the GATT session options described by the config
func (c *Config) SessionOptions() []gatt.Option {
	return []gatt.Option{
		gatt.WithConnectTimeout(c.ConnectTimeout),
		gatt.WithEncodeOptions(c.EncodeOptions()...),
	}
}
