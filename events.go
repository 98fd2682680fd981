package main

import wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

// Event name constants for Wails runtime events
const (
	EventDragOver     = "dropzone:hover"
	EventDropPaths    = "dropzone:paths"
	EventDropDisabled = "dropzone:disabled"

	// EventDOMDrag is emitted by the frontend with a serialized DOM drag event.
	EventDOMDrag = "dropzone:dom"
)

// Safe event emission helpers - nothing is emitted before startup.

func (a *DesktopApp) emitHover(over bool) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, EventDragOver, over)
	}
}

func (a *DesktopApp) emitDropPaths(paths []string) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, EventDropPaths, paths)
	}
}

func (a *DesktopApp) emitDisabled(disabled bool) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, EventDropDisabled, disabled)
	}
}
