// Package main is the entry point for the healthbadge CLI.
//
// Usage:
//
//	healthbadge serve --url http://localhost:5001   # serve the badge page
//	healthbadge serve -c healthbadge.yaml           # same, from a config file
//	healthbadge check --url http://localhost:5001   # one health check
//	healthbadge validate -c healthbadge.yaml        # validate configuration
//	healthbadge casting 3970010                     # check a casting number
//	healthbadge mock                                # fake health endpoint
//	healthbadge version                             # show version info
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "healthbadge",
	Short: "Live API status badge for the casting lookup app",
	Long: `healthbadge polls the web app's health endpoint and keeps a status
badge in sync with the answer.

The endpoint is checked once at startup and every 30 seconds after that.
The badge reads "API Connected" only when the endpoint answers with
{"status": "connected"}; anything else, including no answer at all,
shows "API Disconnected".

Quick start:
  healthbadge serve --url http://localhost:5001
  open http://localhost:8080

Every flag can also be set from the environment with a HEALTHBADGE_
prefix, for example HEALTHBADGE_URL or HEALTHBADGE_PORT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		level, _ := cmd.Flags().GetString("log-level")

		logger, err := newLogger(os.Stderr, format, level)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// newLogger builds the CLI logger. The text format is colourised only when
// w is a terminal.
func newLogger(w *os.File, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case "text", "":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.DateTime,
			NoColor:    !isatty.IsTerminal(w.Fd()),
		})), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error unless the command silenced it
		var exit exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		return 1
	}
	return 0
}

// exitError ends the process with code without printing anything.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string {
	return e.msg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := Execute(ctx)
	stop()
	os.Exit(code)
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this healthbadge binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "healthbadge %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-format", "text", "log output format: text or json")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}
