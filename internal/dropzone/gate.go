package dropzone

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DedupWindow is how long an identical path list counts as a repeat of the
// last forwarded drop. Both drag/drop channels usually fire for one gesture
// well inside this window.
const DedupWindow = 750 * time.Millisecond

// ErrClosed is logged when a drop arrives after the gate was closed.
var ErrClosed = errors.New("dropzone: gate closed")

// Handler consumes a deduplicated, normalized path list.
// Errors and panics are logged by the gate and otherwise ignored.
type Handler func(ctx context.Context, paths []string) error

// Delivery is the most recent forwarded path list.
type Delivery struct {
	At    time.Time
	Paths []string
}

// Gate is the single dedup authority both adapters funnel into.
// Forwarded lists are handed to the handler by one dispatcher goroutine,
// in the order they were accepted; Submit never waits for the handler.
type Gate struct {
	handler Handler
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cond    *sync.Cond
	last    *Delivery
	queue   [][]string
	started bool
	closed  bool
	done    chan struct{}
}

// NewGate creates a gate. A nil clock means time.Now, a nil logger slog.Default().
func NewGate(handler Handler, logger *slog.Logger, now func() time.Time) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	g := &Gate{
		handler: handler,
		log:     logger,
		now:     now,
		done:    make(chan struct{}),
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Start launches the dispatcher. The handler context keeps ctx's values but
// is never cancelled: in-flight deliveries always run to completion.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.closed {
		return
	}
	g.started = true
	go g.run(context.WithoutCancel(ctx))
}

// Submit forwards paths unless it is empty or repeats the last forwarded
// list within DedupWindow. It reports whether paths was accepted.
func (g *Gate) Submit(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	now := g.now()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.log.Warn("drop ignored", "error", ErrClosed, "count", len(paths))
		return false
	}
	if g.last != nil && now.Sub(g.last.At) < DedupWindow && slices.Equal(g.last.Paths, paths) {
		g.mu.Unlock()
		g.log.Debug("duplicate drop suppressed", "count", len(paths), "since", now.Sub(g.last.At))
		return false
	}
	g.last = &Delivery{At: now, Paths: slices.Clone(paths)}
	g.queue = append(g.queue, slices.Clone(paths))
	g.cond.Signal()
	g.mu.Unlock()

	g.log.Debug("drop accepted", "count", len(paths))
	return true
}

// Last returns the most recent forwarded delivery, if any.
func (g *Gate) Last() (Delivery, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return Delivery{}, false
	}
	return Delivery{At: g.last.At, Paths: slices.Clone(g.last.Paths)}, true
}

// Close stops accepting drops and waits for accepted ones to be delivered.
// If the gate was never started, pending drops are discarded.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	started := g.started
	if !started && len(g.queue) > 0 {
		g.log.Warn("discarding undelivered drops", "pending", len(g.queue))
		g.queue = nil
	}
	g.cond.Broadcast()
	g.mu.Unlock()

	if started {
		<-g.done
	}
}

func (g *Gate) run(ctx context.Context) {
	defer close(g.done)
	for {
		g.mu.Lock()
		for len(g.queue) == 0 && !g.closed {
			g.cond.Wait()
		}
		if len(g.queue) == 0 {
			g.mu.Unlock()
			return
		}
		paths := g.queue[0]
		g.queue[0] = nil
		g.queue = g.queue[1:]
		g.mu.Unlock()

		g.deliver(ctx, paths)
	}
}

func (g *Gate) deliver(ctx context.Context, paths []string) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("drop handler panicked", "panic", r, "count", len(paths))
		}
	}()
	if g.handler == nil {
		return
	}
	if err := g.handler(ctx, paths); err != nil {
		g.log.Error("failed to handle drop paths", "error", err, "count", len(paths))
	}
}
