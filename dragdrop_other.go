//go:build !windows

package main

import (
	"context"
	"errors"

	"github.com/wailsapp/wails/v2/pkg/options"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"workspacedrop/internal/dropzone"
)

// dragAndDropOptions enables Wails' own file-drop channel and keeps the
// WebView's DOM drag events alive, so both channels report each gesture.
func dragAndDropOptions() *options.DragAndDrop {
	return &options.DragAndDrop{
		EnableFileDrop:     true,
		DisableWebViewDrop: false,
	}
}

// wailsDropSource is the native channel backed by runtime.OnFileDrop.
// Wails only reports completed drops here; hover comes from the DOM side.
type wailsDropSource struct {
	appCtx context.Context
}

func newNativeDropSource(appCtx context.Context) dropzone.NativeSource {
	return wailsDropSource{appCtx: appCtx}
}

func (s wailsDropSource) Subscribe(ctx context.Context, fn func(dropzone.NativeEvent)) (func(), error) {
	if s.appCtx == nil {
		return nil, errors.New("wails runtime context not available")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wailsRuntime.OnFileDrop(s.appCtx, func(x, y int, paths []string) {
		fn(dropzone.NativeEvent{Kind: dropzone.NativeDrop, Paths: paths, X: x, Y: y})
	})
	return func() { wailsRuntime.OnFileDropOff(s.appCtx) }, nil
}
