// Package cmd wires the warden CLI: a security review runner and a gateway
// demo server, sharing one configuration layer.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wardensec/warden/internal/config"
	"github.com/wardensec/warden/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - request gateway and security review engine",
	Long: `Warden guards HTTP services with a layered request gateway and audits
codebases with a pluggable security review engine.

Run 'warden review' to audit a directory, or 'warden serve' to start the
gateway-protected demo server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds the process logger from config, with --verbose forcing
// debug level.
func newLogger(cfg *config.Config) log.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}
