package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Handler runs one poll cycle. seq is the cycle's dispatch sequence number,
// allocated before the handler's goroutine is started.
type Handler func(ctx context.Context, seq uint64)

// Sequencer hands out monotonically increasing dispatch sequence numbers and
// tracks the highest number that has been committed.
//
// The zero value is ready to use. Next is safe for concurrent use; Commit
// and Applied are guarded by an internal mutex.
type Sequencer struct {
	next atomic.Uint64

	mu      sync.Mutex
	applied uint64
}

// Next returns the next sequence number, starting at 1.
func (q *Sequencer) Next() uint64 {
	return q.next.Add(1)
}

// Commit records seq as applied if it is newer than every previously
// committed number. It reports whether seq was accepted.
func (q *Sequencer) Commit(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq <= q.applied {
		return false
	}
	q.applied = seq
	return true
}

// Applied returns the highest committed sequence number, 0 if none.
func (q *Sequencer) Applied() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.applied
}

// Scheduler fires poll cycles on a fixed cadence.
//
// The first cycle is dispatched immediately on Start, then one per tick of a
// ticker created from the scheduler's clock. Every cycle runs in its own
// goroutine so a slow cycle never delays the next tick; ticks land on exact
// multiples of the interval and cycles may complete out of order.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	clock    clockwork.Clock
	seq      *Sequencer
	handler  Handler
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	dispatched atomic.Uint64
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - interval: time between cycle starts
//   - clock: time source; nil means the real clock
//   - seq: sequence source shared with any out-of-band cycles; nil allocates one
//   - handler: work to run for each cycle
//   - logger: logger for scheduler events (panic recovery)
func NewScheduler(interval time.Duration, clock clockwork.Clock, seq *Sequencer, handler Handler, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if seq == nil {
		seq = &Sequencer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		clock:    clock,
		seq:      seq,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins the tick loop in a background goroutine.
//
// Start is non-blocking. It dispatches one cycle immediately, then one per
// interval until [Scheduler.Stop] is called or ctx is cancelled.
//
// If ctx is nil, context.Background() is used. Start is idempotent;
// subsequent calls are no-ops, and Start after Stop is a no-op. It reports
// whether this call started the loop.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return false
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx // capture under lock
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.dispatch(loopCtx)

		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.Chan():
				s.dispatch(loopCtx)
			}
		}
	}()

	return true
}

// Stop halts the tick loop, cancels in-flight cycles and waits for them.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Dispatched returns how many cycles the tick loop has dispatched.
func (s *Scheduler) Dispatched() uint64 {
	return s.dispatched.Load()
}

// dispatch starts one cycle. Called only from the tick loop, which holds a
// WaitGroup slot, so the Add below never races with Wait reaching zero.
func (s *Scheduler) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	seq := s.seq.Next()
	s.dispatched.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSafe(ctx, seq)
	}()
}

// runSafe calls the handler with panic recovery. A panicking cycle is logged
// with a correlation ID and does not affect later cycles.
func (s *Scheduler) runSafe(ctx context.Context, seq uint64) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("poll cycle panic",
				"correlation_id", correlationID,
				"seq", seq,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.handler(ctx, seq)
}
