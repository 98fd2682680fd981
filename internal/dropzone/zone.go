// Package dropzone reconciles file drops reported by a native window
// channel and by DOM drag events into one deduplicated stream of path
// lists. Each Zone owns its own hover state and dedup history.
package dropzone

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// reporter is what both adapters feed.
type reporter interface {
	disabled() bool
	mounted() bool
	dragOver() bool
	reportHover(over bool)
	reportDrop(paths []string)
}

// Option configures a Zone.
type Option func(*Zone)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(z *Zone) { z.log = logger }
}

// WithClock replaces time.Now for the dedup window.
func WithClock(now func() time.Time) Option {
	return func(z *Zone) { z.now = now }
}

// WithNativeSource attaches a window-level drag/drop channel.
func WithNativeSource(src NativeSource) Option {
	return func(z *Zone) { z.source = src }
}

// WithDisabled sets the initial disabled flag.
func WithDisabled(disabled bool) Option {
	return func(z *Zone) { z.isDisabled = disabled }
}

// WithHoverListener is called with the new hover state on every change.
// Calls never overlap. The listener must not change the zone's hover state.
func WithHoverListener(fn func(over bool)) Option {
	return func(z *Zone) { z.onHover = fn }
}

// Zone is one drop target: hover state, disabled flag, the dedup gate and
// the two adapters feeding it.
type Zone struct {
	log     *slog.Logger
	now     func() time.Time
	source  NativeSource
	onHover func(bool)

	gate   *Gate
	native *NativeAdapter
	dom    *DOMAdapter

	// notifyMu orders hover listener calls; notified is the last value sent.
	notifyMu sync.Mutex
	notified bool

	mu         sync.Mutex
	over       bool
	isDisabled bool
	isMounted  bool
	opened     bool
	closed     bool
}

// New creates a zone delivering drops to handler. Call Open to start it.
func New(handler Handler, opts ...Option) *Zone {
	z := &Zone{}
	for _, opt := range opts {
		opt(z)
	}
	if z.log == nil {
		z.log = slog.Default()
	}
	z.log = z.log.With("component", "dropzone")
	z.gate = NewGate(handler, z.log, z.now)
	z.native = newNativeAdapter(z.source, z, z.log)
	z.dom = newDOMAdapter(z, z.log)
	return z
}

// Open starts the gate and subscribes to the native channel in the
// background. It is a no-op after the first call or after Close.
func (z *Zone) Open(ctx context.Context) {
	z.mu.Lock()
	if z.opened || z.closed {
		z.mu.Unlock()
		return
	}
	z.opened = true
	z.mu.Unlock()

	z.gate.Start(ctx)
	z.native.open(ctx)
}

// Close revokes the native subscription, unmounts the zone and waits for
// accepted drops to reach the handler.
func (z *Zone) Close() {
	z.mu.Lock()
	if z.closed {
		z.mu.Unlock()
		return
	}
	z.closed = true
	z.isMounted = false
	z.mu.Unlock()

	z.native.close()
	z.setHover(false)
	z.gate.Close()
}

// Mount marks the drop target element as attached.
func (z *Zone) Mount() {
	z.mu.Lock()
	defer z.mu.Unlock()
	if !z.closed {
		z.isMounted = true
	}
}

// Unmount detaches the drop target; native events are ignored until Mount.
func (z *Zone) Unmount() {
	z.mu.Lock()
	z.isMounted = false
	z.mu.Unlock()
	z.setHover(false)
}

// SetDisabled toggles the disabled flag. Subscriptions stay registered.
func (z *Zone) SetDisabled(disabled bool) {
	z.mu.Lock()
	z.isDisabled = disabled
	z.mu.Unlock()
	if disabled {
		z.setHover(false)
	}
}

// Disabled reports the disabled flag.
func (z *Zone) Disabled() bool {
	return z.disabled()
}

// IsDragOver reports whether a file drag is over the zone.
func (z *Zone) IsDragOver() bool {
	return z.dragOver()
}

// DOM returns the adapter for DOM drag callbacks.
func (z *Zone) DOM() *DOMAdapter {
	return z.dom
}

// Gate returns the zone's dedup gate.
func (z *Zone) Gate() *Gate {
	return z.gate
}

func (z *Zone) disabled() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.isDisabled
}

func (z *Zone) mounted() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.isMounted
}

func (z *Zone) dragOver() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.over
}

func (z *Zone) reportHover(over bool) {
	z.setHover(over)
}

func (z *Zone) reportDrop(paths []string) {
	z.gate.Submit(paths)
}

// setHover stores over and notifies the listener when it changed.
func (z *Zone) setHover(over bool) {
	z.mu.Lock()
	z.over = over
	z.mu.Unlock()
	z.notifyHover()
}

// notifyHover reports the current hover state if the listener has not seen
// it yet. Notifications are serialized and read the state under notifyMu,
// so the listener's last call always matches IsDragOver.
func (z *Zone) notifyHover() {
	if z.onHover == nil {
		return
	}
	z.notifyMu.Lock()
	defer z.notifyMu.Unlock()
	over := z.dragOver()
	if over == z.notified {
		return
	}
	z.notified = over
	z.onHover(over)
}
