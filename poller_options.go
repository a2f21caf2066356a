package healthbadge

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jpalmerr/healthbadge/internal/metrics"
)

// pollerConfig holds mutable state during Poller construction.
type pollerConfig struct {
	interval   time.Duration
	timeout    time.Duration
	headers    map[string]string
	resolver   Resolver
	sinks      []Sink
	clock      clockwork.Clock
	sequencing bool
	logger     *slog.Logger
	recorder   *metrics.Recorder
}

// PollerOption configures a [Poller] during construction.
type PollerOption func(*pollerConfig) error

// WithInterval sets the time between cycle starts. Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) PollerOption {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return ErrInvalidInterval
		}
		cfg.interval = d
		return nil
	}
}

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) PollerOption {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every health request.
//
// Accepts variadic key-value pairs. Returns an error if an odd number of
// arguments is provided.
func WithHeaders(keyValues ...string) PollerOption {
	return func(cfg *pollerConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithResolver replaces [DefaultResolver].
func WithResolver(r Resolver) PollerOption {
	return func(cfg *pollerConfig) error {
		if err := r.validate(); err != nil {
			return err
		}
		cfg.resolver = r
		return nil
	}
}

// WithSink registers a [Sink]. Sinks are applied in registration order.
// Nil sinks are ignored.
func WithSink(s Sink) PollerOption {
	return func(cfg *pollerConfig) error {
		if s != nil {
			cfg.sinks = append(cfg.sinks, s)
		}
		return nil
	}
}

// WithClock sets the time source driving the cadence. Tests pass a
// clockwork fake clock to step through cycles deterministically.
func WithClock(c clockwork.Clock) PollerOption {
	return func(cfg *pollerConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithSequencing controls the stale-overwrite guard. Enabled by default.
//
// When enabled, a completing cycle updates the sinks only if it was
// dispatched after every cycle applied so far. When disabled, the last cycle
// to complete wins, even if it was dispatched earlier.
func WithSequencing(enabled bool) PollerOption {
	return func(cfg *pollerConfig) error {
		cfg.sequencing = enabled
		return nil
	}
}

// WithPollerLogger sets the logger for poller events. Defaults to [slog.Default].
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(cfg *pollerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// withRecorder attaches a metrics recorder.
func withRecorder(r *metrics.Recorder) PollerOption {
	return func(cfg *pollerConfig) error {
		cfg.recorder = r
		return nil
	}
}
