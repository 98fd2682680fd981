package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	logLevel     string
	dropDisabled bool
	noNotify     bool
)

var rootCmd = &cobra.Command{
	Use:          "workspacedrop",
	Short:        "Drop files onto the window to hand their paths to the workspace",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := LoadConfig()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if dropDisabled {
			cfg.DropDisabled = true
		}
		if noNotify {
			off := false
			cfg.NotifyOnDrop = &off
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log-level", "error", "log level (error, warn, info or debug)")
	rootCmd.Flags().BoolVar(&dropDisabled, "disabled", false, "start with the drop zone disabled")
	rootCmd.Flags().BoolVar(&noNotify, "no-notify", false, "don't show a desktop notification after a drop")
}

func run(cfg *AppConfig) error {
	logFile, err := InitLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logFile.Close()
	Log.Info("启动", "logLevel", GetLogLevel(), "dataDir", AppDataDir())

	app := NewDesktopApp(cfg)
	app.initSystray()

	err = wails.Run(&options.App{
		Title:       AppTitle,
		Width:       cfg.WindowWidth,
		Height:      cfg.WindowHeight,
		AssetServer: &assetserver.Options{Assets: assets},
		DragAndDrop: dragAndDropOptions(),
		OnStartup:   app.startup,
		OnDomReady:  app.onDomReady,
		OnShutdown:  app.shutdown,
		Bind:        []interface{}{app},
	})
	if err != nil {
		Log.Error("Wails 运行失败", "error", err)
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
