// Package metrics records poll outcomes in Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

const prefix = "healthbadge_"

// Recorder counts poll cycles and exposes them for scraping.
//
// Each Recorder owns its own metric set, so several instances (tests, or two
// badges in one process) never collide on registration.
type Recorder struct {
	set *vm.Set

	connectedPolls    *vm.Counter
	disconnectedPolls *vm.Counter
	pollErrors        *vm.Counter
	staleUpdates      *vm.Counter
	pollDuration      *vm.Histogram

	connected atomic.Int32
}

// NewRecorder creates a [Recorder] with all metrics registered.
func NewRecorder() *Recorder {
	set := vm.NewSet()
	r := &Recorder{
		set:               set,
		connectedPolls:    set.NewCounter(fmt.Sprintf(`%spolls_total{status="connected"}`, prefix)),
		disconnectedPolls: set.NewCounter(fmt.Sprintf(`%spolls_total{status="disconnected"}`, prefix)),
		pollErrors:        set.NewCounter(prefix + "poll_errors_total"),
		staleUpdates:      set.NewCounter(prefix + "stale_updates_total"),
		pollDuration:      set.NewHistogram(prefix + "poll_duration_seconds"),
	}
	set.NewGauge(prefix+"connected", func() float64 {
		return float64(r.connected.Load())
	})
	return r
}

// ObservePoll records a completed cycle. failed marks a transport failure
// (as opposed to a reachable endpoint reporting something other than
// connected).
func (r *Recorder) ObservePoll(connected bool, failed bool, latency time.Duration) {
	if r == nil {
		return
	}
	if connected {
		r.connectedPolls.Inc()
	} else {
		r.disconnectedPolls.Inc()
	}
	if failed {
		r.pollErrors.Inc()
	}
	r.pollDuration.Update(latency.Seconds())
}

// ObserveApplied records the state now shown on the badge.
func (r *Recorder) ObserveApplied(connected bool) {
	if r == nil {
		return
	}
	if connected {
		r.connected.Store(1)
	} else {
		r.connected.Store(0)
	}
}

// ObserveStale records a completion discarded because a newer cycle had
// already been applied.
func (r *Recorder) ObserveStale() {
	if r == nil {
		return
	}
	r.staleUpdates.Inc()
}

// Polls returns the number of cycles observed, by outcome.
func (r *Recorder) Polls() (connected, disconnected uint64) {
	if r == nil {
		return 0, 0
	}
	return r.connectedPolls.Get(), r.disconnectedPolls.Get()
}

// StaleUpdates returns how many completions were discarded as stale.
func (r *Recorder) StaleUpdates() uint64 {
	if r == nil {
		return 0
	}
	return r.staleUpdates.Get()
}

// WritePrometheus writes all metrics in Prometheus text format.
func (r *Recorder) WritePrometheus(w io.Writer) {
	if r == nil {
		return
	}
	r.set.WritePrometheus(w)
}
