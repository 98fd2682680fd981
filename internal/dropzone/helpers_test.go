package dropzone

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recorder is a Handler that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recorder) handle(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
	return r.err
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func assertCalls(t *testing.T, got [][]string, want ...[]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("handler called %d times %q, want %d %q", len(got), got, len(want), want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// fakeSource is a NativeSource driven by the test.
type fakeSource struct {
	err  error
	wait bool // block in Subscribe until ctx is cancelled

	mu           sync.Mutex
	fn           func(NativeEvent)
	unsubscribed int
	subscribed   chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{subscribed: make(chan struct{})}
}

func (s *fakeSource) Subscribe(ctx context.Context, fn func(NativeEvent)) (func(), error) {
	if s.wait {
		<-ctx.Done()
	}
	if s.err != nil {
		close(s.subscribed)
		return nil, s.err
	}
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	close(s.subscribed)
	return func() {
		s.mu.Lock()
		s.unsubscribed++
		s.mu.Unlock()
	}, nil
}

func (s *fakeSource) emit(t *testing.T, evt NativeEvent) {
	t.Helper()
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		t.Fatal("native source not subscribed")
	}
	fn(evt)
}

func (s *fakeSource) waitSubscribed(t *testing.T) {
	t.Helper()
	select {
	case <-s.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for native subscription")
	}
}

func (s *fakeSource) unsubscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

// hoverLog records hover listener notifications.
type hoverLog struct {
	mu     sync.Mutex
	events []bool
}

func (h *hoverLog) record(over bool) {
	h.mu.Lock()
	h.events = append(h.events, over)
	h.mu.Unlock()
}

func (h *hoverLog) snapshot() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.events)
}

var errHandler = errors.New("handler failed")
