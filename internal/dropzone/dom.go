package dropzone

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
)

// DOM drag event names.
const (
	DragEnterEvent = "dragenter"
	DragOverEvent  = "dragover"
	DragLeaveEvent = "dragleave"
	DropEvent      = "drop"
)

// fileIndicatorTypes are DataTransfer.types entries that mark a file drag:
// the generic marker, the macOS file URL and the Gecko file MIME type.
var fileIndicatorTypes = []string{
	"Files",
	"public.file-url",
	"application/x-moz-file",
}

// FileIndicatorTypes returns the DataTransfer types recognized as file drags.
func FileIndicatorTypes() []string {
	return slices.Clone(fileIndicatorTypes)
}

// File is a DOM File handle. Path is empty where the platform hides it.
type File struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Item is a DataTransferItem; File is nil when getAsFile() returned null.
type Item struct {
	Kind string `json:"kind"`
	Type string `json:"type,omitempty"`
	File *File  `json:"file,omitempty"`
}

// DataTransfer mirrors the parts of a DOM DataTransfer the zone reads.
type DataTransfer struct {
	Types []string `json:"types"`
	Files []File   `json:"files"`
	Items []Item   `json:"items"`
}

// DragEvent is a DOM drag event serialized by the frontend.
type DragEvent struct {
	Type         string        `json:"type"`
	DataTransfer *DataTransfer `json:"dataTransfer,omitempty"`
}

// DecodeDragEvent converts a loosely typed event payload, such as the
// decoded JSON a frontend event carries, into a DragEvent.
func DecodeDragEvent(payload any) (DragEvent, error) {
	var evt DragEvent
	data, err := json.Marshal(payload)
	if err != nil {
		return evt, fmt.Errorf("encode drag event: %w", err)
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("decode drag event: %w", err)
	}
	if evt.Type == "" {
		return evt, fmt.Errorf("decode drag event: missing type")
	}
	return evt, nil
}

// IsFileDrag reports whether types declares a file payload.
func IsFileDrag(types []string) bool {
	for _, t := range types {
		if slices.Contains(fileIndicatorTypes, t) {
			return true
		}
	}
	return false
}

// DOMAdapter bridges DOM drag callbacks to the zone's hover/drop state.
// Callbacks that return a bool report whether the default browser action
// must be prevented.
type DOMAdapter struct {
	zone reporter
	log  *slog.Logger
}

func newDOMAdapter(zone reporter, logger *slog.Logger) *DOMAdapter {
	return &DOMAdapter{zone: zone, log: logger}
}

// Dispatch routes evt by its type. Unknown types are ignored.
func (a *DOMAdapter) Dispatch(evt DragEvent) bool {
	switch evt.Type {
	case DragEnterEvent:
		return a.DragEnter(evt)
	case DragOverEvent:
		return a.DragOver(evt)
	case DragLeaveEvent:
		a.DragLeave(evt)
		return false
	case DropEvent:
		return a.Drop(evt)
	default:
		a.log.Debug("unknown DOM drag event", "type", evt.Type)
		return false
	}
}

// DragEnter behaves like DragOver.
func (a *DOMAdapter) DragEnter(evt DragEvent) bool {
	return a.DragOver(evt)
}

// DragOver sets hover and asks to prevent the default action when the
// drag carries files. Non-file drags and a disabled zone are left alone.
func (a *DOMAdapter) DragOver(evt DragEvent) bool {
	if a.zone.disabled() {
		return false
	}
	if evt.DataTransfer == nil || !IsFileDrag(evt.DataTransfer.Types) {
		return false
	}
	a.zone.reportHover(true)
	return true
}

// DragLeave clears hover if it is set.
func (a *DOMAdapter) DragLeave(DragEvent) {
	if a.zone.dragOver() {
		a.zone.reportHover(false)
	}
}

// Drop collects paths from the file list first, then from file-kind items.
func (a *DOMAdapter) Drop(evt DragEvent) bool {
	if a.zone.disabled() {
		return false
	}
	a.zone.reportHover(false)
	a.zone.reportDrop(NormalizePaths(dropPaths(evt.DataTransfer)))
	return true
}

func dropPaths(dt *DataTransfer) []string {
	if dt == nil {
		return nil
	}
	raw := make([]string, 0, len(dt.Files)+len(dt.Items))
	for _, f := range dt.Files {
		raw = append(raw, f.Path)
	}
	for _, it := range dt.Items {
		if it.Kind != "file" || it.File == nil {
			continue
		}
		raw = append(raw, it.File.Path)
	}
	return raw
}
