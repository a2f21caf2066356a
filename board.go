package healthbadge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/healthbadge/dashboard"
	"github.com/jpalmerr/healthbadge/internal/metrics"
	"github.com/jpalmerr/healthbadge/internal/server"
	"github.com/jpalmerr/healthbadge/internal/store"
)

const defaultPort = 8080

// Board polls a health endpoint and serves the resulting badge.
//
// Board wires a [Poller] to an in-memory badge store, a metrics recorder and
// an HTTP server that renders the badge and streams changes to browsers. It
// is created using [New] with functional options and started with
// [Board.Start].
//
// The typical lifecycle is:
//
//	b, err := healthbadge.New("http://localhost:5001/api/health")
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
//
// A Board runs once: after Start returns, its poller is stopped for good.
type Board struct {
	title    string
	port     int
	logger   *slog.Logger
	poller   *Poller
	badge    *Indicator
	store    *store.MemoryStore
	recorder *metrics.Recorder
}

// New creates a [Board] polling the health endpoint at url.
//
// Defaults:
//   - Port: 8080
//   - Interval: 30 seconds, timeout 10 seconds (see [WithPollerOptions])
//
// Returns an error if the URL or any option is invalid.
//
// Example:
//
//	b, err := healthbadge.New("http://localhost:5001/api/health",
//	    healthbadge.WithPort(9090),
//	    healthbadge.WithPollerOptions(healthbadge.WithInterval(10*time.Second)),
//	)
func New(url string, opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port: defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		title:    cfg.title,
		port:     cfg.port,
		logger:   logger,
		badge:    NewIndicator(),
		store:    store.NewMemoryStore(),
		recorder: metrics.NewRecorder(),
	}

	// the page shows the neutral badge until the first cycle lands
	b.store.Update(toRecord(Update{Status: StatusUnknown, Badge: BadgeFor(StatusUnknown)}))

	// store before callbacks so a callback reading the API sees the new state
	pollerOpts := []PollerOption{
		WithPollerLogger(logger),
		withRecorder(b.recorder),
		WithSink(b.badge),
		WithSink(SinkFunc(func(u Update) { b.store.Update(toRecord(u)) })),
		WithSink(NewLogSink(logger)),
	}
	for _, cb := range cfg.statusCallbacks {
		pollerOpts = append(pollerOpts, WithSink(SinkFunc(cb)))
	}
	pollerOpts = append(pollerOpts, cfg.pollerOpts...)

	p, err := NewPoller(url, pollerOpts...)
	if err != nil {
		return nil, err
	}
	b.poller = p

	return b, nil
}

// Start begins polling and serving the badge.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The health endpoint is polled immediately, then at the configured interval
//   - The HTTP server starts on the configured port
//   - Status changes are logged
//   - The badge page is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("healthbadge starting", "url", b.poller.URL())
	b.logger.Info("polling configured", "interval", b.poller.Interval().String())
	b.logger.Info("badge available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		b.poller.Stop()
		return nil
	}

	b.poller.Start(ctx)

	httpServer := server.NewServer(b.store, b.recorder, b.port, dashboard.Assets, b.title, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		b.poller.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	b.poller.Stop()
	b.logger.Info("healthbadge stopped")
	return nil
}

// URL returns the health endpoint being polled.
func (b *Board) URL() string {
	return b.poller.URL()
}

// Port returns the configured HTTP port for the badge server.
func (b *Board) Port() int {
	return b.port
}

// Interval returns the time between poll cycles.
func (b *Board) Interval() time.Duration {
	return b.poller.Interval()
}

// Badge returns the badge currently displayed.
func (b *Board) Badge() Badge {
	return b.badge.Badge()
}

// Status returns the status currently displayed.
func (b *Board) Status() HealthStatus {
	return b.badge.Status()
}

// toRecord converts an applied update to its stored representation.
func toRecord(u Update) store.BadgeRecord {
	var errStr *string
	if u.Err != nil {
		s := u.Err.Error()
		errStr = &s
	}

	badge := u.Badge
	if badge == (Badge{}) {
		badge = BadgeFor(u.Status)
	}

	return store.BadgeRecord{
		Seq:        u.Seq,
		Status:     u.Status.String(),
		Class:      badge.Class,
		Text:       badge.Text,
		StatusCode: u.StatusCode,
		LatencyMs:  u.Latency.Milliseconds(),
		CheckedAt:  u.CheckedAt,
		Error:      errStr,
	}
}
