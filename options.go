package healthbadge

import (
	"errors"
	"log/slog"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	port            int
	logger          *slog.Logger
	pollerOpts      []PollerOption
	statusCallbacks []func(Update)
}

// Option configures a [Board] during construction.
//
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithPort sets the HTTP port for the badge server.
//
// Defaults to 8080. Returns an error if the port is outside 1-65535.
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the page title shown in the browser tab and navbar.
//
// If not specified, defaults to "Chevy Casting Lookup".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets the [slog.Logger] for the board, its poller and its
// server. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithPollerOptions passes options through to the board's [Poller].
//
// Example:
//
//	b, err := healthbadge.New(url,
//	    healthbadge.WithPollerOptions(
//	        healthbadge.WithInterval(10*time.Second),
//	        healthbadge.WithHeaders("X-Api-Key", key),
//	    ),
//	)
func WithPollerOptions(opts ...PollerOption) Option {
	return func(cfg *boardConfig) error {
		cfg.pollerOpts = append(cfg.pollerOpts, opts...)
		return nil
	}
}

// WithStatusCallback registers a function called with every applied update.
//
// Multiple callbacks may be registered; they execute in registration order,
// after the badge and its API state have been updated. Stale completions
// discarded by sequencing never reach a callback.
//
// Callbacks run with the poller's apply lock held and must be non-blocking.
// Panics are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(Update)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}
