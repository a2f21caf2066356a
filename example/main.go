package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/healthbadge"
	"github.com/jpalmerr/healthbadge/internal/mockhealth"
)

func main() {
	// fake web app health endpoint, flips state every 20-40 seconds
	mock := &http.Server{
		Addr:              ":5001",
		Handler:           mockhealth.New(nil, 20*time.Second, 150*time.Millisecond, nil).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := mock.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mock server error", "error", err)
		}
	}()
	defer mock.Close()

	board, err := healthbadge.New("http://localhost:5001"+mockhealth.Path,
		healthbadge.WithPort(8080),
		healthbadge.WithPollerOptions(
			healthbadge.WithInterval(5*time.Second),
			healthbadge.WithTimeout(2*time.Second),
		),
		healthbadge.WithStatusCallback(func(u healthbadge.Update) {
			fmt.Printf("  [%s] %s (seq %d)\n", u.CheckedAt.Format(time.TimeOnly), u.Badge.Text, u.Seq)
		}),
	)
	if err != nil {
		slog.Error("failed to create badge board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  healthbadge demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  Mock API cycles: connected -> degraded -> down")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("healthbadge error", "error", err)
		os.Exit(1)
	}
}
