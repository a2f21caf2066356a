// Package mockhealth serves a fake /api/health endpoint whose state cycles
// through connected, degraded and down. It backs the demo in example/ and
// the `healthbadge mock` command.
package mockhealth

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Path is the route the mock health endpoint is served on.
const Path = "/api/health"

// State is one phase of the cycle.
type State struct {
	Name   string
	Code   int
	Status string
}

// States is the cycle in order. Degraded answers 200 but is not "connected",
// so the badge shows it as disconnected.
var States = []State{
	{Name: "connected", Code: http.StatusOK, Status: "connected"},
	{Name: "degraded", Code: http.StatusOK, Status: "degraded"},
	{Name: "down", Code: http.StatusServiceUnavailable, Status: "error"},
}

// Server holds the cycle position.
type Server struct {
	clock   clockwork.Clock
	hold    time.Duration
	latency time.Duration
	logger  *slog.Logger

	mu           sync.Mutex
	idx          int
	nextChangeAt time.Time
}

// New creates a Server that stays in each state for between hold and
// 2*hold, and sleeps up to latency before answering. A nil clock means the
// real clock; a nil logger means [slog.Default].
func New(clock clockwork.Clock, hold, latency time.Duration, logger *slog.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		clock:   clock,
		hold:    hold,
		latency: latency,
		logger:  logger,
	}
	s.nextChangeAt = clock.Now().Add(s.nextHold())
	return s
}

func (s *Server) nextHold() time.Duration {
	if s.hold <= 0 {
		return 0
	}
	return s.hold + rand.N(s.hold+1)
}

// Current advances the cycle if its hold has expired and returns the state.
func (s *Server) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !now.Before(s.nextChangeAt) {
		from := States[s.idx]
		s.idx = (s.idx + 1) % len(States)
		s.nextChangeAt = now.Add(s.nextHold())
		s.logger.Info("mock status change", "from", from.Name, "to", States[s.idx].Name)
	}
	return States[s.idx]
}

// Handler returns a gin engine serving GET [Path].
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(Path, s.health)
	return r
}

func (s *Server) health(c *gin.Context) {
	if s.latency > 0 {
		s.clock.Sleep(rand.N(s.latency))
	}

	st := s.Current()
	body := gin.H{"status": st.Status}
	if st.Code != http.StatusOK {
		body["message"] = "database unavailable"
	}
	c.JSON(st.Code, body)
}
