/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/config"
	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	logFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrobbledash",
	Short: "Live Last.fm listening dashboard",
	Long: `scrobbledash is a terminal dashboard for a Last.fm account.

It keeps your recent tracks and top artists in sync with Last.fm, shows
what is playing right now, and fills in artist artwork in the background.

One-shot commands print the same data to stdout, useful for scripts and
status lines.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr, discarded by the dashboard)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// setupLogger creates a logger with the specified configuration. When
// quiet is set and no log file is given, logs are discarded so they do
// not draw over a full-screen UI.
func setupLogger(logFile, logLevel string, quiet bool) zerolog.Logger {
	// Parse log level
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}

	// Set up output
	var output io.Writer
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		} else {
			output = f
		}
	case quiet:
		output = io.Discard
	default:
		// Use pretty console output if logging to stderr
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// clientLogger adapts zerolog to the lastfm.Logger interface
type clientLogger struct {
	logger zerolog.Logger
}

func (l clientLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// loadConfig loads and validates configuration for commands that talk to
// Last.fm
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w\nRun 'scrobbledash configure' to set up your Last.fm account", err)
	}
	return cfg, nil
}

// newClient creates a Last.fm client from configuration
func newClient(cfg *config.Config, logger zerolog.Logger) (*lastfm.Client, error) {
	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:    cfg.LastFM.APIKey,
		Username:  cfg.LastFM.Username,
		RateLimit: cfg.RateLimit,
		Logger:    clientLogger{logger: logger.With().Str("component", "lastfm").Logger()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
	}
	return client, nil
}
