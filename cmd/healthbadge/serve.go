package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthbadge"
	"github.com/jpalmerr/healthbadge/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the badge page server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the health endpoint and serve the badge page",
	Long: `Start polling the web app's health endpoint and serve a page whose
status badge follows the result.

The server will:
  - Resolve configuration from the optional YAML file, HEALTHBADGE_*
    environment variables and flags, in increasing precedence
  - Check the health endpoint immediately, then every interval
  - Serve the badge page, /api/badge, /api/sse and /metrics on the port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  healthbadge serve --url http://localhost:5001
  healthbadge serve -c healthbadge.yaml --port 9090
  HEALTHBADGE_URL=https://casting.example.com healthbadge serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addConfigFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port for the badge page (overrides config)")
	serveCmd.Flags().Duration("interval", 0, "time between health checks (overrides config)")
	serveCmd.Flags().String("title", "", "page title (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	gin.SetMode(gin.ReleaseMode)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("starting server",
		"url", cfg.URL,
		"port", cfg.Port,
		"interval", cfg.Interval.Duration().String(),
		"sequencing", cfg.Sequencing,
	)

	opts := append(config.BoardOptions(cfg), healthbadge.WithLogger(logger))
	board, err := healthbadge.New(cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create badge board: %w", err)
	}

	ctx := cmd.Context()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
