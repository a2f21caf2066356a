package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthbadge/internal/mockhealth"
)

// mockCmd serves a fake health endpoint for local testing.
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a fake health endpoint that cycles its status",
	Long: `Serve a fake /api/health that cycles connected -> degraded -> down.

Point serve or check at it to watch the badge change:
  healthbadge mock --port 5001
  healthbadge serve --url http://localhost:5001`,
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().IntP("port", "p", 5001, "port to listen on")
	mockCmd.Flags().Duration("hold", 20*time.Second, "minimum time in each state")
	mockCmd.Flags().Duration("latency", 200*time.Millisecond, "maximum simulated latency")
}

func runMock(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	gin.SetMode(gin.ReleaseMode)

	port, _ := cmd.Flags().GetInt("port")
	hold, _ := cmd.Flags().GetDuration("hold")
	latency, _ := cmd.Flags().GetDuration("latency")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mockhealth.New(nil, hold, latency, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock health endpoint listening", "addr", srv.Addr, "path", mockhealth.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock server error: %w", err)
	}
	return nil
}
