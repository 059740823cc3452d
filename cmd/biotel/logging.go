package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/biotel/biotel/pkg/config"
)

// loadRuntime resolves configuration and builds the logger for a
// command invocation. A --config file layers over the defaults; the
// --log-level flag overrides the file. Without either flag logging is
// near-silent so the sample output stays clean.
func loadRuntime(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	var cfg *config.Config

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		cfg.LogLevel = "panic"
	}

	if logLevelStr, _ := cmd.Flags().GetString("log-level"); logLevelStr != "" {
		switch logLevelStr {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = logLevelStr
		default:
			return nil, nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
