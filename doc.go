// Package healthbadge keeps a single "API connected" badge in step with a
// remote health endpoint.
//
// A [Poller] requests the endpoint (by default GET /api/health) once
// immediately and then every 30 seconds, resolves each response to a
// [HealthStatus] and applies the matching [Badge] to its sinks. Only a
// response whose JSON "status" field is exactly "connected" counts as
// connected; network failures, timeouts, malformed bodies
// and every other reported status collapse to disconnected.
//
// # Quick Start
//
// Poll an endpoint and read the badge directly:
//
//	badge := healthbadge.NewIndicator()
//	p, err := healthbadge.NewPoller("http://localhost:5001/api/health",
//	    healthbadge.WithSink(badge),
//	)
//	if err != nil {
//	    return err
//	}
//	p.Start(ctx)
//	defer p.Stop()
//
// Or serve the badge over HTTP with a [Board]:
//
//	b, _ := healthbadge.New("http://localhost:5001/api/health", healthbadge.WithPort(9090))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Ordering
//
// Cycles are dispatched on the timer without waiting for earlier ones, so a
// slow request can complete after a newer one. Every cycle carries a
// dispatch sequence number and, unless disabled with [WithSequencing], a
// completion older than the applied state is discarded.
//
// # Architecture
//
//   - internal/poller: HTTP transport and the tick scheduler
//   - internal/store: latest badge record with pub/sub for live updates
//   - internal/server: badge page, JSON, SSE and metrics over gin
//   - internal/metrics: poll counters and latency histogram
//   - dashboard: embedded badge page
//   - casting: casting-number input helpers used by the lookup form
//
// The internal packages are not part of the public API.
package healthbadge
