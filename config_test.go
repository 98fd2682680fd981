package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	off := false
	cfg := &AppConfig{LogLevel: "debug", WindowWidth: 1280, WindowHeight: 720, DropDisabled: true, NotifyOnDrop: &off}

	if err := saveConfigTo(dir, cfg); err != nil {
		t.Fatalf("saveConfigTo: %v", err)
	}
	got := loadConfigFrom(filepath.Join(dir, "config.json"))
	if got.LogLevel != "debug" || got.WindowWidth != 1280 || got.WindowHeight != 720 || !got.DropDisabled || got.IsNotifyOnDrop() {
		t.Errorf("loaded %+v", got)
	}
}

func TestSaveConfigReportsDirError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := saveConfigTo(filepath.Join(blocker, "data"), DefaultConfig()); err == nil {
		t.Fatal("saveConfigTo succeeded under a regular file")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	if got := loadConfigFrom(filepath.Join(dir, "missing.json")); got.WindowWidth != 900 || !got.IsNotifyOnDrop() {
		t.Errorf("missing file gave %+v", got)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"windowWidth":0,"windowHeight":-1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if got := loadConfigFrom(path); got.WindowWidth != 900 || got.WindowHeight != 600 {
		t.Errorf("invalid size not defaulted: %+v", got)
	}
}
