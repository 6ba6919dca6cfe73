package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

const (
	flagLogLevel  = "loglevel"
	flagLogFormat = "logformat"
)

var logLevels = []string{"warn", "debug", "info", "error"}

func registerLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(flagLogLevel, "warn", "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringP(flagLogFormat, "f", "text", "set the log format (text, json)")
}

// baseLogger builds the logger selected by the logging flags. Logs go to
// stderr so command output stays machine readable.
func baseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := loggerLevel(cmd)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format, _ := cmd.Flags().GetString(flagLogFormat); format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	return slog.New(handler), nil
}

func loggerLevel(cmd *cobra.Command) (slog.Level, error) {
	name, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return slog.LevelWarn, err
	}
	if !slices.Contains(logLevels, name) {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", name)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", name)
	}
	return level, nil
}
