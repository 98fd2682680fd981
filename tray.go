package main

import (
	"github.com/ra1phdd/systray-on-wails"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// initSystray sets up the tray icon. The menu toggles the drop zone's
// disabled flag without touching its subscriptions.
func (a *DesktopApp) initSystray() {
	systray.Register(func() {
		systray.SetIcon(trayIcon())
		systray.SetTooltip(AppTitle)

		mShow := systray.AddMenuItem("打开界面", "打开主窗口")
		mToggle := systray.AddMenuItem(toggleTitle(a.IsDropDisabled()), "启用或停用拖放区域")
		mQuit := systray.AddMenuItem("退出", "退出程序")

		go func() {
			for {
				select {
				case <-mShow.ClickedCh:
					a.showWindow()
				case <-mToggle.ClickedCh:
					disabled := !a.IsDropDisabled()
					a.SetDropDisabled(disabled)
					mToggle.SetTitle(toggleTitle(disabled))
				case <-mQuit.ClickedCh:
					if a.ctx != nil {
						wailsRuntime.Quit(a.ctx)
					}
					return
				}
			}
		}()
	}, nil)
}

func toggleTitle(disabled bool) string {
	if disabled {
		return "启用拖放"
	}
	return "停用拖放"
}
