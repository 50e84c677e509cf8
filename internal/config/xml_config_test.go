package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logsync.xml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected default config file to be written: %v", err)
	}
	if cfg.Remote.NamePrefix != "logging" {
		t.Errorf("Expected default prefix 'logging', got %q", cfg.Remote.NamePrefix)
	}
	if cfg.Processing.FetchWorkers != 4 {
		t.Errorf("Expected default worker count 4, got %d", cfg.Processing.FetchWorkers)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logsync.xml")

	original := DefaultConfig()
	original.Remote.BaseURL = "https://drive.example.com/api"
	original.Remote.Folders = []string{"folder-a", "folder-b"}
	original.Remote.NamePrefix = "cozi_logging"
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Remote.BaseURL != "https://drive.example.com/api" {
		t.Errorf("BaseURL not preserved: %q", cfg.Remote.BaseURL)
	}
	if len(cfg.Remote.Folders) != 2 || cfg.Remote.Folders[1] != "folder-b" {
		t.Errorf("Folders not preserved: %v", cfg.Remote.Folders)
	}
	if cfg.Remote.NamePrefix != "cozi_logging" {
		t.Errorf("NamePrefix not preserved: %q", cfg.Remote.NamePrefix)
	}
}

func TestLoadConfigResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logsync.xml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !filepath.IsAbs(cfg.Cache.Directory) {
		t.Errorf("Cache directory not resolved to absolute: %q", cfg.Cache.Directory)
	}
	if !strings.HasPrefix(cfg.Cache.Directory, dir) {
		t.Errorf("Cache directory %q not rooted at config dir %q", cfg.Cache.Directory, dir)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LOGSYNC_TOKEN", "env-token")
	t.Setenv("LOGSYNC_CACHE_DIR", "/tmp/env-cache")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "logsync.xml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Remote.Token != "env-token" {
		t.Errorf("Expected token override, got %q", cfg.Remote.Token)
	}
	if cfg.Cache.Directory != "/tmp/env-cache" {
		t.Errorf("Expected cache dir override, got %q", cfg.Cache.Directory)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logsync.xml")
	if err := os.WriteFile(path, []byte("<LogSync><broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for malformed XML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	cfg.Remote.Folders = nil
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty folder list")
	}
}
