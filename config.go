package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// AppConfig holds all persistent user settings.
type AppConfig struct {
	LogLevel     string `json:"logLevel"`
	WindowWidth  int    `json:"windowWidth"`
	WindowHeight int    `json:"windowHeight"`
	DropDisabled bool   `json:"dropDisabled"`
	NotifyOnDrop *bool  `json:"notifyOnDrop"` // nil = true (default on)
}

// IsNotifyOnDrop returns whether a desktop notification follows each drop (default true).
func (c *AppConfig) IsNotifyOnDrop() bool {
	return c.NotifyOnDrop == nil || *c.NotifyOnDrop
}

var (
	appDataDir     string
	appDataDirOnce sync.Once
)

// DefaultConfig returns config with default values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		LogLevel:     "error",
		WindowWidth:  900,
		WindowHeight: 600,
	}
}

// AppDataDir returns the path to ~/.workspacedrop/, creating it if needed.
func AppDataDir() string {
	appDataDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			// Fallback to exe directory
			if exe, err2 := os.Executable(); err2 == nil {
				appDataDir = filepath.Dir(exe)
			} else {
				appDataDir = "."
			}
			return
		}
		appDataDir = filepath.Join(home, ".workspacedrop")
		if err := os.MkdirAll(appDataDir, 0755); err != nil {
			Log.Warn("创建数据目录失败", "dir", appDataDir, "error", err)
		}
	})
	return appDataDir
}

// DataPath returns the full path for a file inside the data directory.
func DataPath(elem ...string) string {
	parts := append([]string{AppDataDir()}, elem...)
	return filepath.Join(parts...)
}

func configPath() string {
	return DataPath("config.json")
}

// LoadConfig reads config from ~/.workspacedrop/config.json.
// Returns default config if the file doesn't exist or can't be parsed.
func LoadConfig() *AppConfig {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) *AppConfig {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		fmt.Printf("配置文件解析失败，使用默认配置: %v\n", err)
		return DefaultConfig()
	}

	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = 900
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = 600
	}

	return cfg
}

// SaveConfig writes the config to ~/.workspacedrop/config.json.
func SaveConfig(cfg *AppConfig) error {
	return saveConfigTo(AppDataDir(), cfg)
}

func saveConfigTo(dir string, cfg *AppConfig) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
