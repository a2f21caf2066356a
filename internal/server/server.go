package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	slogGin "github.com/samber/slog-gin"

	"github.com/jpalmerr/healthbadge/internal/metrics"
	"github.com/jpalmerr/healthbadge/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdownTimeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Chevy Casting Lookup"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// paths served uncompressed; SSE must flush every event as written
var gzipExcludedPaths = []string{"/api/sse", "/healthz"}

// Server serves the badge page, its JSON and SSE feeds, and metrics.
//
// Routes:
//   - GET /: the embedded badge page
//   - GET /api/badge: the current badge record as JSON
//   - GET /api/sse: Server-Sent Events stream of badge records
//   - GET /metrics: Prometheus text exposition
//   - GET /healthz: liveness
//
// The server shuts down gracefully when the context passed to Start is
// cancelled.
type Server struct {
	store      store.Store
	recorder   *metrics.Recorder
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the badge record
//   - recorder: metrics exposed at /metrics (may be nil)
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing the page (may be nil)
//   - title: Page title (defaults to "Chevy Casting Lookup" if empty)
//   - logger: Logger for server events and access logs
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, recorder *metrics.Recorder, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    st,
		recorder: recorder,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
	}
}

// Handler builds the gin engine with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := gin.New()

	r.Use(slogGin.NewWithConfig(s.logger.WithGroup("http"), slogGin.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths(gzipExcludedPaths)))
	r.Use(cors.Default())

	r.GET("/", s.handleDashboard)
	r.GET("/api/badge", s.handleBadge)
	r.GET("/api/sse", s.handleSSE)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/healthz", s.handleHealthz)

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until ctx is cancelled, then shuts down
// with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// listen first to surface port conflicts synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the badge page with the title substituted.
func (s *Server) handleDashboard(c *gin.Context) {
	if s.assets == nil {
		c.String(http.StatusInternalServerError, "Dashboard not found")
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "Dashboard not found")
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rendered))
}

// handleBadge returns the current badge record.
func (s *Server) handleBadge(c *gin.Context) {
	record, ok := s.store.Latest()
	if !ok {
		c.PureJSON(http.StatusServiceUnavailable, gin.H{"error": "no badge state yet"})
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("failed to encode badge response", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/json", data)
}

// handleMetrics writes the poll metrics in Prometheus text format.
func (s *Server) handleMetrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	s.recorder.WritePrometheus(c.Writer)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.PureJSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSSE streams badge records via Server-Sent Events.
//
// Writes carry a deadline so a slow or vanished client cannot pin the
// handler; without one a blocked write would never observe shutdown.
func (s *Server) handleSSE(c *gin.Context) {
	w := c.Writer
	rc := http.NewResponseController(w)

	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// current state first, so a fresh page never waits a full interval
	if record, ok := s.store.Latest(); ok {
		data, err := json.Marshal(record)
		if err == nil {
			if err := writeAndFlush(data); err != nil {
				return
			}
		}
	}

	ctx := c.Request.Context()
	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(record)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-ctx.Done():
			// fires on client disconnect and on server shutdown (BaseContext)
			return
		}
	}
}
