package healthbadge

import (
	"log/slog"
	"sync"
	"time"
)

// Sink receives every applied [Update].
//
// Apply is the thin effect step of a poll cycle: it is called with the
// poller's apply lock held, in sequence order, so it must not block or call
// back into the poller. Panics are recovered and logged.
type Sink interface {
	Apply(u Update)
}

// SinkFunc adapts an ordinary function to the [Sink] interface.
type SinkFunc func(u Update)

// Apply calls f(u).
func (f SinkFunc) Apply(u Update) {
	f(u)
}

// Indicator is the single status badge.
//
// It starts with the neutral [StatusUnknown] badge and afterwards always
// shows exactly one of the connected or disconnected badges. Safe for
// concurrent use.
type Indicator struct {
	mu        sync.RWMutex
	status    HealthStatus
	badge     Badge
	seq       uint64
	updatedAt time.Time
}

// NewIndicator returns an indicator showing the pre-poll badge.
func NewIndicator() *Indicator {
	return &Indicator{
		status: StatusUnknown,
		badge:  BadgeFor(StatusUnknown),
	}
}

// Apply replaces the displayed badge with the one for u.Status.
func (i *Indicator) Apply(u Update) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = u.Status
	i.badge = BadgeFor(u.Status)
	i.seq = u.Seq
	i.updatedAt = u.CheckedAt
}

// Badge returns the badge currently displayed.
func (i *Indicator) Badge() Badge {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.badge
}

// Status returns the status currently displayed.
func (i *Indicator) Status() HealthStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Seq returns the sequence number of the cycle currently displayed, 0 before
// the first update.
func (i *Indicator) Seq() uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.seq
}

// UpdatedAt returns when the displayed cycle completed.
func (i *Indicator) UpdatedAt() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.updatedAt
}

// logSink logs status transitions at info and steady-state cycles at debug.
type logSink struct {
	logger *slog.Logger
	last   HealthStatus
}

// NewLogSink returns a [Sink] that logs every applied update. Changes of
// status are logged at info level; repeated statuses at debug.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger, last: StatusUnknown}
}

func (l *logSink) Apply(u Update) {
	attrs := []any{
		"seq", u.Seq,
		"status", u.Status.String(),
		"latency_ms", u.Latency.Milliseconds(),
	}
	if u.StatusCode != 0 {
		attrs = append(attrs, "status_code", u.StatusCode)
	}
	if u.Err != nil {
		attrs = append(attrs, "error", u.Err.Error())
	}

	if u.Status != l.last {
		l.logger.Info("api status changed", append(attrs, "previous", l.last.String())...)
	} else {
		l.logger.Debug("api status unchanged", attrs...)
	}
	l.last = u.Status
}
