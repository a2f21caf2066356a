// Package server provides the HTTP server for the health badge.
//
// It is built on gin and handles all HTTP concerns:
//
//   - Badge page: the embedded HTML page at "/"
//   - REST API: JSON snapshot of the current badge at "/api/badge"
//   - Server-Sent Events: live badge updates at "/api/sse"
//   - Metrics: Prometheus text at "/metrics"
//   - Liveness: "/healthz"
//
// Requests are access-logged through slog, panics are recovered and CORS is
// open to any origin. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the healthbadge library should not need to interact with this
// package directly. The server is started by [healthbadge.Board.Start].
package server
