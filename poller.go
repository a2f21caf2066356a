package healthbadge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jpalmerr/healthbadge/internal/metrics"
	"github.com/jpalmerr/healthbadge/internal/poller"
)

const (
	// DefaultInterval is the time between cycle starts.
	DefaultInterval = 30 * time.Second

	// DefaultTimeout bounds a single health request.
	DefaultTimeout = 10 * time.Second

	// DefaultPath is where the health endpoint lives on the web app.
	DefaultPath = "/api/health"
)

var (
	// ErrInvalidURL is returned for a health URL that is not absolute http(s).
	ErrInvalidURL = errors.New("health url must be an absolute http or https URL")

	// ErrInvalidInterval is returned for a non-positive poll interval.
	ErrInvalidInterval = errors.New("poll interval must be positive")
)

// Poller checks a health endpoint on a fixed cadence and reflects the
// outcome on its sinks.
//
// A Poller owns its timer: [Poller.Start] begins polling (one cycle
// immediately, then one per interval) and [Poller.Stop] ends it, cancelling
// in-flight requests and discarding their late completions. Each cycle is
// dispatched without waiting for the previous one, so cycles can complete
// out of order; with sequencing enabled (the default) only a cycle newer
// than everything already applied reaches the sinks.
//
// All methods are safe for concurrent use.
type Poller struct {
	url        string
	headers    map[string]string
	timeout    time.Duration
	interval   time.Duration
	resolver   Resolver
	sinks      []Sink
	clock      clockwork.Clock
	sequencing bool
	logger     *slog.Logger
	recorder   *metrics.Recorder

	client    *poller.Client
	seq       *poller.Sequencer
	scheduler *poller.Scheduler

	// life is cancelled by Stop; every cycle's context derives from it
	life       context.Context
	cancelLife context.CancelFunc

	// mu serialises apply and guards the fields below
	mu       sync.Mutex
	stopped  bool
	status   HealthStatus
	inflight sync.WaitGroup
	stopOnce sync.Once
}

// NewPoller creates a [Poller] for the health endpoint at rawURL.
//
// Options have these defaults: interval 30s, timeout 10s, [DefaultResolver],
// sequencing enabled, real clock, [slog.Default] logger, no sinks.
//
// Returns an error if the URL is not an absolute http or https URL or if any
// option is invalid.
//
// Example:
//
//	badge := healthbadge.NewIndicator()
//	p, err := healthbadge.NewPoller("http://localhost:5001/api/health",
//	    healthbadge.WithSink(badge),
//	)
func NewPoller(rawURL string, opts ...PollerOption) (*Poller, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	cfg := &pollerConfig{
		interval:   DefaultInterval,
		timeout:    DefaultTimeout,
		headers:    make(map[string]string),
		resolver:   DefaultResolver,
		sequencing: true,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.clock == nil {
		cfg.clock = clockwork.NewRealClock()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	life, cancel := context.WithCancel(context.Background())
	p := &Poller{
		url:        rawURL,
		headers:    cfg.headers,
		timeout:    cfg.timeout,
		interval:   cfg.interval,
		resolver:   cfg.resolver,
		sinks:      cfg.sinks,
		clock:      cfg.clock,
		sequencing: cfg.sequencing,
		logger:     cfg.logger,
		recorder:   cfg.recorder,
		client:     poller.NewClient(),
		seq:        &poller.Sequencer{},
		life:       life,
		cancelLife: cancel,
		status:     StatusUnknown,
	}
	p.scheduler = poller.NewScheduler(p.interval, p.clock, p.seq, p.scheduled, p.logger)

	return p, nil
}

// validateURL checks that rawURL is absolute http or https.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// URL returns the health endpoint being polled.
func (p *Poller) URL() string {
	return p.url
}

// Interval returns the time between cycle starts.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling in the background: one cycle immediately, then one
// at every interval boundary.
//
// Start is non-blocking and idempotent. Cancelling ctx stops the cadence
// but, unlike [Poller.Stop], does not discard completions of cycles already
// in flight. Start after Stop is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if !p.scheduler.Start(ctx) {
		p.logger.Debug("health poller already started or stopped", "url", p.url)
		return
	}
	p.logger.Info("health poller started",
		"url", p.url,
		"interval", p.interval.String(),
		"sequencing", p.sequencing,
	)
}

// Stop ends polling. It stops the timer, cancels in-flight requests,
// suppresses their late completions and waits for them to return.
//
// Stop is idempotent and safe to call before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		p.cancelLife()
		p.scheduler.Stop()
		p.inflight.Wait()
		p.client.Close()

		p.logger.Info("health poller stopped", "last_applied_seq", p.seq.Applied())
	})
}

// PollOnce performs exactly one health check and returns the resolved
// status. The sinks are updated too, subject to sequencing; the returned
// value is the cycle's own result even when it was discarded as stale.
//
// After Stop, PollOnce sends no request and returns [StatusDisconnected].
func (p *Poller) PollOnce(ctx context.Context) HealthStatus {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return StatusDisconnected
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unhook := context.AfterFunc(p.life, cancel)
	defer unhook()

	return p.cycle(ctx, p.seq.Next())
}

// Status returns the status most recently applied to the sinks, or
// [StatusUnknown] before the first cycle has been applied.
func (p *Poller) Status() HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// scheduled is the scheduler's handler for timer-driven cycles. Their
// context is cancelled by the scheduler itself when Stop runs.
func (p *Poller) scheduled(ctx context.Context, seq uint64) {
	p.cycle(ctx, seq)
}

// cycle runs one poll: fetch, resolve, apply.
func (p *Poller) cycle(ctx context.Context, seq uint64) HealthStatus {
	resp := p.client.Fetch(ctx, p.url, p.headers, p.timeout)

	probe := ProbeResult{
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
		Err:        resp.Error,
	}
	status, cause := p.resolver.Explain(probe)
	p.recorder.ObservePoll(status == StatusConnected, resp.Error != nil, resp.Latency)

	p.apply(Update{
		Seq:        seq,
		Status:     status,
		Badge:      BadgeFor(status),
		CheckedAt:  p.clock.Now(),
		Latency:    resp.Latency,
		StatusCode: resp.StatusCode,
		Err:        cause,
	})

	return status
}

// apply delivers u to the sinks unless the poller is stopped or, with
// sequencing enabled, a newer cycle has already been applied.
func (p *Poller) apply(u Update) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		p.logger.Debug("discarding completion after stop", "seq", u.Seq)
		return false
	}

	newest := p.seq.Commit(u.Seq)
	if p.sequencing && !newest {
		p.recorder.ObserveStale()
		p.logger.Debug("discarding stale completion",
			"seq", u.Seq,
			"applied_seq", p.seq.Applied(),
			"status", u.Status.String(),
		)
		return false
	}

	p.status = u.Status
	p.recorder.ObserveApplied(u.Status == StatusConnected)
	for _, s := range p.sinks {
		p.applySafe(s, u)
	}
	return true
}

// applySafe calls a sink with panic recovery.
func (p *Poller) applySafe(s Sink, u Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("status sink panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"seq", u.Seq,
			)
		}
	}()
	s.Apply(u)
}
