package main

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/ra1phdd/systray-on-wails"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"workspacedrop/internal/dropzone"
)

//go:embed build/appicon.png
var appIconPNG []byte

// AppTitle is the main window title; the Windows drop target looks it up.
const AppTitle = "Workspace Drop"

// DesktopApp is the Wails application binding struct.
// Methods on this struct are exposed to the frontend via window.go.main.DesktopApp.
type DesktopApp struct {
	ctx       context.Context
	cfg       *AppConfig
	zone      *dropzone.Zone
	offDOMEvt func()
}

// NewDesktopApp creates a new DesktopApp instance.
func NewDesktopApp(cfg *AppConfig) *DesktopApp {
	return &DesktopApp{cfg: cfg}
}

// startup is called when the Wails app starts.
func (a *DesktopApp) startup(ctx context.Context) {
	tStartup := time.Now()
	a.ctx = ctx
	beeep.AppName = AppTitle

	a.zone = dropzone.New(a.handleDrop,
		dropzone.WithLogger(Log),
		dropzone.WithDisabled(a.cfg.DropDisabled),
		dropzone.WithNativeSource(newNativeDropSource(ctx)),
		dropzone.WithHoverListener(a.emitHover),
	)
	a.offDOMEvt = wailsRuntime.EventsOn(ctx, EventDOMDrag, a.onDOMDragEvent)
	Log.Debug("Wails OnStartup 回调结束", "耗时", time.Since(tStartup), "dropDisabled", a.cfg.DropDisabled)
}

// onDomReady is called when the WebView DOM is fully loaded. The native
// channel is opened here: on Windows the WebView's child windows, which
// receive the drop target, only exist from this point on.
func (a *DesktopApp) onDomReady(ctx context.Context) {
	Log.Debug("Wails OnDomReady 回调触发 — 界面已可交互")
	if a.zone != nil {
		a.zone.Open(ctx)
	}
}

// onDOMDragEvent handles drag events the frontend sends without waiting
// for a verdict (dragleave).
func (a *DesktopApp) onDOMDragEvent(data ...interface{}) {
	if a.zone == nil || len(data) == 0 {
		return
	}
	evt, err := dropzone.DecodeDragEvent(data[0])
	if err != nil {
		Log.Warn("无法解析拖放事件", "error", err)
		return
	}
	a.zone.DOM().Dispatch(evt)
}

// shutdown is called when the Wails app is closing.
func (a *DesktopApp) shutdown(ctx context.Context) {
	if a.offDOMEvt != nil {
		a.offDOMEvt()
	}
	if a.zone != nil {
		a.cfg.DropDisabled = a.zone.Disabled()
		a.zone.Close()
	}

	w, h := wailsRuntime.WindowGetSize(ctx)
	if w > 0 && h > 0 {
		a.cfg.WindowWidth = w
		a.cfg.WindowHeight = h
	}

	Log.Info("shutdown: saving config", "windowWidth", a.cfg.WindowWidth, "windowHeight", a.cfg.WindowHeight)
	if err := SaveConfig(a.cfg); err != nil {
		Log.Error("保存配置失败", "error", err)
	}

	systray.Quit()
}

// handleDrop is the application-level consumer of deduplicated drops.
func (a *DesktopApp) handleDrop(_ context.Context, paths []string) error {
	Log.Info("收到拖放文件", "count", len(paths), "first", paths[0])
	a.emitDropPaths(paths)

	if !a.cfg.IsNotifyOnDrop() {
		return nil
	}
	if err := beeep.Notify(AppTitle, dropSummary(paths), ""); err != nil {
		return fmt.Errorf("notify drop: %w", err)
	}
	return nil
}

func dropSummary(paths []string) string {
	if len(paths) == 1 {
		return "已接收 " + filepath.Base(paths[0])
	}
	return fmt.Sprintf("已接收 %d 个文件", len(paths))
}

// FileIndicatorTypes returns the DataTransfer types that mark a file drag.
// The frontend needs them to decide preventDefault synchronously.
func (a *DesktopApp) FileIndicatorTypes() []string {
	return dropzone.FileIndicatorTypes()
}

// HandleDragEvent receives a DOM drag event from the frontend and reports
// whether the default browser action should be prevented.
func (a *DesktopApp) HandleDragEvent(evt dropzone.DragEvent) bool {
	if a.zone == nil {
		return false
	}
	return a.zone.DOM().Dispatch(evt)
}

// MountDropTarget is called once the drop target element is in the DOM.
func (a *DesktopApp) MountDropTarget() {
	if a.zone != nil {
		a.zone.Mount()
	}
}

// UnmountDropTarget is called when the drop target element goes away.
func (a *DesktopApp) UnmountDropTarget() {
	if a.zone != nil {
		a.zone.Unmount()
	}
}

// SetDropDisabled toggles whether the drop zone reacts to drags.
func (a *DesktopApp) SetDropDisabled(disabled bool) {
	if a.zone == nil {
		return
	}
	a.zone.SetDisabled(disabled)
	a.emitDisabled(disabled)
	Log.Info("拖放区域状态变更", "disabled", disabled)
}

// IsDropDisabled reports the disabled flag.
func (a *DesktopApp) IsDropDisabled() bool {
	if a.zone == nil {
		return a.cfg.DropDisabled
	}
	return a.zone.Disabled()
}

// IsDragOver reports whether a file drag is currently over the drop target.
func (a *DesktopApp) IsDragOver() bool {
	return a.zone != nil && a.zone.IsDragOver()
}

// SetLogLevel changes the log level from the frontend.
func (a *DesktopApp) SetLogLevel(level string) {
	SetLogLevel(level)
	a.cfg.LogLevel = GetLogLevel()
}

// showWindow brings the application window to the foreground.
func (a *DesktopApp) showWindow() {
	if a.ctx == nil {
		return
	}
	wailsRuntime.Show(a.ctx)
	wailsRuntime.WindowUnminimise(a.ctx)
}
