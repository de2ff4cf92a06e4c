package main

import (
	"fmt"
	"os"
	"time"

	"github.com/plajta/plajtime/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig reads --config, or the default config path when it exists, and validates it.
// fromFile reports whether a file was actually read.
func loadConfig(cmd *cobra.Command) (cfg *config.Config, fromFile bool, err error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err = config.Load(path)
		fromFile = true
	} else {
		path = config.DefaultConfigPath()
		cfg, err = config.LoadOptional(path)
		fromFile = path != "" && fileExists(path)
	}
	if err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, fromFile, nil
}

// configureLogger creates a logger with the appropriate log level based on flags.
// Precedence: --log-level, then --verbose, then log_level from a config file.
// Without any of them the logger stays silent so it does not garble the progress line.
func configureLogger(cmd *cobra.Command, verboseFlagName string, cfg *config.Config, fromFile bool) (*logrus.Logger, error) {
	// Default to panic level (essentially silent for normal operations)
	logLevel := logrus.PanicLevel

	// Check --log-level first (takes precedence)
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		switch logLevelStr {
		case "debug":
			logLevel = logrus.DebugLevel
		case "info":
			logLevel = logrus.InfoLevel
		case "warn":
			logLevel = logrus.WarnLevel
		case "error":
			logLevel = logrus.ErrorLevel
		default:
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
	} else if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
		logLevel = logrus.DebugLevel
	} else if cfg != nil && fromFile {
		logLevel = cfg.Level()
	}

	// Create logger with configured level
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
