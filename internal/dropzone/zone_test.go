package dropzone

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func newTestZone(t *testing.T, src NativeSource, opts ...Option) (*Zone, *recorder, *hoverLog, *fakeClock) {
	t.Helper()
	rec := &recorder{}
	hover := &hoverLog{}
	clock := newFakeClock()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithClock(clock.Now),
		WithHoverListener(hover.record),
		WithNativeSource(src),
	}, opts...)
	z := New(rec.handle, opts...)
	z.Mount()
	z.Open(context.Background())
	t.Cleanup(z.Close)
	return z, rec, hover, clock
}

func TestNativeHoverTransitions(t *testing.T) {
	src := newFakeSource()
	z, _, hover, _ := newTestZone(t, src)
	src.waitSubscribed(t)

	src.emit(t, NativeEvent{Kind: NativeEnter})
	if !z.IsDragOver() {
		t.Fatal("enter did not set hover")
	}
	src.emit(t, NativeEvent{Kind: NativeOver})
	src.emit(t, NativeEvent{Kind: NativeOver})
	src.emit(t, NativeEvent{Kind: NativeLeave})
	if z.IsDragOver() {
		t.Fatal("leave did not clear hover")
	}
	if got, want := hover.snapshot(), []bool{true, false}; !slices.Equal(got, want) {
		t.Errorf("hover notifications = %v, want %v", got, want)
	}
}

func TestNativeDropSubmitsNormalizedPaths(t *testing.T) {
	src := newFakeSource()
	z, rec, _, _ := newTestZone(t, src)
	src.waitSubscribed(t)

	src.emit(t, NativeEvent{Kind: NativeOver})
	src.emit(t, NativeEvent{Kind: NativeDrop, Paths: []string{" /a/x.png", "", "  ", "/a/y.png\n"}})
	if z.IsDragOver() {
		t.Error("drop did not clear hover")
	}
	z.Close()
	assertCalls(t, rec.snapshot(), []string{"/a/x.png", "/a/y.png"})
}

func TestNativeEventsIgnoredWhenInactive(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(z *Zone)
	}{
		{"disabled", func(z *Zone) { z.SetDisabled(true) }},
		{"unmounted", func(z *Zone) { z.Unmount() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			z, rec, hover, _ := newTestZone(t, src)
			src.waitSubscribed(t)
			tt.prepare(z)

			src.emit(t, NativeEvent{Kind: NativeEnter})
			src.emit(t, NativeEvent{Kind: NativeDrop, Paths: []string{"/a"}})
			z.Close()

			if len(hover.snapshot()) != 0 {
				t.Errorf("hover changed: %v", hover.snapshot())
			}
			assertCalls(t, rec.snapshot())
		})
	}
}

func TestSetDisabledResetsHover(t *testing.T) {
	src := newFakeSource()
	z, _, _, _ := newTestZone(t, src)
	src.waitSubscribed(t)

	src.emit(t, NativeEvent{Kind: NativeEnter})
	z.SetDisabled(true)
	if z.IsDragOver() {
		t.Error("disabling kept hover state")
	}
	if src.unsubscribeCount() != 0 {
		t.Error("disabling revoked the native subscription")
	}

	z.SetDisabled(false)
	src.emit(t, NativeEvent{Kind: NativeEnter})
	if !z.IsDragOver() {
		t.Error("re-enabled zone ignored native enter")
	}
}

func TestSubscriptionFailureFallsBackToDOM(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("window unavailable")
	z, rec, _, _ := newTestZone(t, src)
	src.waitSubscribed(t)

	z.DOM().Drop(DragEvent{Type: DropEvent, DataTransfer: &DataTransfer{
		Types: []string{"Files"},
		Files: []File{{Name: "x.png", Path: "/a/x.png"}},
	}})
	z.Close()
	assertCalls(t, rec.snapshot(), []string{"/a/x.png"})
	if src.unsubscribeCount() != 0 {
		t.Error("unsubscribe called for a failed subscription")
	}
}

func TestCloseUnsubscribesOnce(t *testing.T) {
	src := newFakeSource()
	z, _, _, _ := newTestZone(t, src)
	src.waitSubscribed(t)

	z.Close()
	z.Close()
	if got := src.unsubscribeCount(); got != 1 {
		t.Errorf("unsubscribe called %d times, want 1", got)
	}
}

func TestCloseWhileSubscribing(t *testing.T) {
	src := newFakeSource()
	src.wait = true
	z, _, _, _ := newTestZone(t, src)

	closed := make(chan struct{})
	go func() {
		z.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung on a pending subscription")
	}
	if got := src.unsubscribeCount(); got != 1 {
		t.Errorf("late subscription unsubscribed %d times, want 1", got)
	}
}

func TestZoneWithoutNativeSource(t *testing.T) {
	z, rec, _, _ := newTestZone(t, nil)

	z.DOM().Drop(DragEvent{Type: DropEvent, DataTransfer: &DataTransfer{
		Files: []File{{Path: "/a"}},
	}})
	z.Close()
	assertCalls(t, rec.snapshot(), []string{"/a"})
}

func TestDualSourceDropDeliveredOnce(t *testing.T) {
	src := newFakeSource()
	z, rec, _, clock := newTestZone(t, src)
	src.waitSubscribed(t)

	src.emit(t, NativeEvent{Kind: NativeDrop, Paths: []string{"/a/x.png", "/a/y.png"}})
	clock.Advance(40 * time.Millisecond)
	z.DOM().Drop(DragEvent{Type: DropEvent, DataTransfer: &DataTransfer{
		Types: []string{"Files"},
		Files: []File{{Path: "/a/x.png"}, {Path: "/a/y.png"}},
	}})
	z.Close()

	assertCalls(t, rec.snapshot(), []string{"/a/x.png", "/a/y.png"})
}

func TestZonesAreIndependent(t *testing.T) {
	first, firstRec, _, _ := newTestZone(t, nil)
	second, secondRec, _, _ := newTestZone(t, nil)

	evt := DragEvent{Type: DropEvent, DataTransfer: &DataTransfer{Files: []File{{Path: "/a"}}}}
	first.DOM().Drop(evt)
	second.DOM().Drop(evt)
	first.Close()
	second.Close()

	assertCalls(t, firstRec.snapshot(), []string{"/a"})
	assertCalls(t, secondRec.snapshot(), []string{"/a"})
}

func TestHoverListenerSeesFinalState(t *testing.T) {
	entered := make(chan bool, 4)
	release := make(chan struct{})
	hover := &hoverLog{}
	z := New(nil,
		WithLogger(discardLogger()),
		WithHoverListener(func(over bool) {
			entered <- over
			if over {
				<-release
			}
			hover.record(over)
		}),
	)
	z.Mount()
	z.Open(context.Background())
	t.Cleanup(z.Close)

	enterDone := make(chan struct{})
	go func() {
		z.reportHover(true)
		close(enterDone)
	}()
	if over := <-entered; !over {
		t.Fatal("first notification was not hover=true")
	}

	// The leave races the slow enter notification.
	leaveDone := make(chan struct{})
	go func() {
		z.DOM().DragLeave(DragEvent{Type: DragLeaveEvent})
		close(leaveDone)
	}()
	deadline := time.After(2 * time.Second)
	for z.IsDragOver() {
		select {
		case <-deadline:
			t.Fatal("leave never cleared hover")
		case <-time.After(time.Millisecond):
		}
	}
	close(release)
	<-enterDone
	<-leaveDone

	got := hover.snapshot()
	if want := []bool{true, false}; !slices.Equal(got, want) {
		t.Fatalf("hover notifications = %v, want %v", got, want)
	}
	if got[len(got)-1] != z.IsDragOver() {
		t.Errorf("listener last saw hover=%v, zone reports %v", got[len(got)-1], z.IsDragOver())
	}
}
