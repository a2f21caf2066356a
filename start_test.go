package healthbadge

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpalmerr/healthbadge/internal/store"
)

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

func connectedAPI(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":"connected","api_url":"http://localhost:8000"}`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	ts := connectedAPI(t)

	b, err := New(ts.URL, WithPort(freePort(t)), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	ts := connectedAPI(t)

	b, err := New(ts.URL, WithPort(freePort(t)), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

// TestStart_PortInUse verifies that a bind failure is reported and the
// poller is stopped.
func TestStart_PortInUse(t *testing.T) {
	ts := connectedAPI(t)

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	b, err := New(ts.URL, WithPort(ln.Addr().(*net.TCPAddr).Port), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Fatalf("expected server start error, got: %v", err)
	}

	if got := b.poller.PollOnce(context.Background()); got != StatusDisconnected {
		t.Errorf("poller should be stopped after a failed Start, PollOnce() = %v", got)
	}
}

// TestStart_ServesBadge runs the whole board against a connected API and
// reads the badge back over HTTP.
func TestStart_ServesBadge(t *testing.T) {
	ts := connectedAPI(t)
	port := freePort(t)

	b, err := New(ts.URL, WithPort(port), WithLogger(testLogger()), WithTitle("Lookup"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for b.Status() != StatusConnected && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.Status() != StatusConnected {
		t.Fatalf("badge never turned connected, status = %v", b.Status())
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	var record store.BadgeRecord
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/api/badge")
		if err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		err = json.NewDecoder(resp.Body).Decode(&record)
		_ = resp.Body.Close()
		if err != nil {
			t.Fatalf("invalid badge JSON: %v", err)
		}
		break
	}

	if record.Class != "badge bg-success" || record.Text != "API Connected" {
		t.Errorf("unexpected badge record: %+v", record)
	}
	if record.Seq == 0 {
		t.Error("record should carry the cycle sequence number")
	}

	resp, err := http.Get(base + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	page, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("reading page: %v", err)
	}
	if !strings.Contains(string(page), "<title>Lookup</title>") || !strings.Contains(string(page), `id="api-status"`) {
		t.Errorf("unexpected page: %s", page)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return")
	}
}

// TestStart_MultipleSequentialRuns verifies that a new Board can be started
// after the previous one shuts down.
func TestStart_MultipleSequentialRuns(t *testing.T) {
	ts := connectedAPI(t)

	for i := 0; i < 3; i++ {
		b, err := New(ts.URL,
			WithPort(freePort(t)),
			WithLogger(testLogger()),
			WithPollerOptions(WithInterval(50*time.Millisecond)),
		)
		if err != nil {
			t.Fatalf("iteration %d: New() error = %v", i, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- b.Start(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("iteration %d: Start() returned error: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Start() did not return", i)
		}
	}
}

// TestStart_ConcurrentAccess verifies accessors are safe while running.
func TestStart_ConcurrentAccess(t *testing.T) {
	ts := connectedAPI(t)

	b, err := New(ts.URL,
		WithPort(freePort(t)),
		WithLogger(testLogger()),
		WithPollerOptions(WithInterval(20*time.Millisecond)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Start(ctx)
	}()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = b.Badge()
				_ = b.Status()
				_ = b.Port()
				_ = b.Interval()
				time.Sleep(time.Millisecond)
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutines did not complete")
	}
}

// TestStart_WithTimeoutContext verifies Start respects deadline contexts.
func TestStart_WithTimeoutContext(t *testing.T) {
	ts := connectedAPI(t)

	b, err := New(ts.URL, WithPort(freePort(t)), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = b.Start(ctx)
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("Start() ran for %v, expected ~200ms", elapsed)
	}
	if err != nil {
		t.Errorf("Start() returned error: %v", err)
	}
}
