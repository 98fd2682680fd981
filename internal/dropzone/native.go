package dropzone

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// NativeEventKind tags a window-level drag/drop event.
type NativeEventKind int

const (
	NativeEnter NativeEventKind = iota
	NativeOver
	NativeLeave
	NativeDrop
)

func (k NativeEventKind) String() string {
	switch k {
	case NativeEnter:
		return "enter"
	case NativeOver:
		return "over"
	case NativeLeave:
		return "leave"
	case NativeDrop:
		return "drop"
	default:
		return fmt.Sprintf("NativeEventKind(%d)", int(k))
	}
}

// NativeEvent is one event from the native window channel.
// Paths is only meaningful for NativeDrop.
type NativeEvent struct {
	Kind  NativeEventKind
	Paths []string
	X, Y  int
}

// NativeSource is a window-level drag/drop channel.
// Subscribe must return promptly once ctx is cancelled. The returned
// unsubscribe func is called exactly once, on teardown.
type NativeSource interface {
	Subscribe(ctx context.Context, fn func(NativeEvent)) (unsubscribe func(), err error)
}

// NativeSourceFunc adapts a plain function to NativeSource.
type NativeSourceFunc func(ctx context.Context, fn func(NativeEvent)) (func(), error)

func (f NativeSourceFunc) Subscribe(ctx context.Context, fn func(NativeEvent)) (func(), error) {
	return f(ctx, fn)
}

// NativeAdapter bridges a NativeSource to the zone's hover/drop state.
type NativeAdapter struct {
	source NativeSource
	zone   reporter
	log    *slog.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
	closed      bool
}

func newNativeAdapter(source NativeSource, zone reporter, logger *slog.Logger) *NativeAdapter {
	return &NativeAdapter{source: source, zone: zone, log: logger}
}

// open subscribes in the background. A failed subscription only leaves the
// zone without native events.
func (a *NativeAdapter) open(ctx context.Context) {
	if a.source == nil {
		a.log.Debug("no native drag/drop source configured")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done = cancel, done

	go func() {
		defer close(done)
		unsubscribe, err := a.source.Subscribe(ctx, a.handle)
		if err != nil {
			a.log.Warn("native drag/drop unavailable, using DOM events only", "error", err)
			return
		}
		a.mu.Lock()
		a.unsubscribe = unsubscribe
		a.mu.Unlock()
		a.log.Debug("native drag/drop subscribed")
	}()
}

// close cancels a pending subscription and revokes an established one.
func (a *NativeAdapter) close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (a *NativeAdapter) handle(evt NativeEvent) {
	if a.zone.disabled() || !a.zone.mounted() {
		return
	}
	switch evt.Kind {
	case NativeLeave:
		a.zone.reportHover(false)
	case NativeEnter, NativeOver:
		a.zone.reportHover(true)
	case NativeDrop:
		a.zone.reportHover(false)
		a.zone.reportDrop(NormalizePaths(evt.Paths))
	default:
		a.log.Debug("unknown native drag/drop event", "kind", evt.Kind)
	}
}
