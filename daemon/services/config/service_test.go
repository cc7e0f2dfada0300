package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/domalab/ttop/daemon/services/collecterr"
)

func TestService_Load_Defaults(t *testing.T) {
	dir := t.TempDir()
	s := NewService(dir)

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Global.UpdateMS != 1000 {
		t.Errorf("expected default update_ms 1000, got %d", cfg.Global.UpdateMS)
	}
	if cfg.Global.HistorySize != 300 {
		t.Errorf("expected default history_size 300, got %d", cfg.Global.HistorySize)
	}
	if cfg.Global.TempScale != "celsius" {
		t.Errorf("expected default temp_scale celsius, got %s", cfg.Global.TempScale)
	}
}

func TestService_Load_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("version: \"1\"\nglobal:\n  update_ms: 2000\n  history_size: 120\n  temp_scale: fahrenheit\n  vim_keys: false\n  mouse: false\ntheme: dark\n")
	if err := os.WriteFile(filepath.Join(dir, "ttop.yaml"), content, 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	s := NewService(dir)
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Global.UpdateMS != 2000 {
		t.Errorf("expected update_ms 2000, got %d", cfg.Global.UpdateMS)
	}
	if cfg.Global.TempScale != "fahrenheit" {
		t.Errorf("expected temp_scale fahrenheit, got %s", cfg.Global.TempScale)
	}
	if cfg.Theme != "dark" {
		t.Errorf("expected theme dark, got %s", cfg.Theme)
	}
}

// TestService_Overrides_BeatFile pins the CLI > file precedence: a value
// set via SetOverride wins even when the config file names the same key.
func TestService_Overrides_BeatFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("global:\n  update_ms: 2000\n  history_size: 120\ntheme: dark\n")
	if err := os.WriteFile(filepath.Join(dir, "ttop.yaml"), content, 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	s := NewService(dir)
	s.ApplyOverrides(map[string]interface{}{
		"global.update_ms": 250,
		"theme":            "light",
	})

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Global.UpdateMS != 250 {
		t.Errorf("update_ms = %d, want CLI override 250", cfg.Global.UpdateMS)
	}
	if cfg.Theme != "light" {
		t.Errorf("theme = %s, want CLI override light", cfg.Theme)
	}
	// A key with no override still comes from the file.
	if cfg.Global.HistorySize != 120 {
		t.Errorf("history_size = %d, want file value 120", cfg.Global.HistorySize)
	}
}

func TestService_UseFile_Missing(t *testing.T) {
	s := NewService()
	s.UseFile(filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := s.Load()
	var notFound *collecterr.ConfigNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ConfigNotFoundError for a pinned missing file, got %v", err)
	}
}

func TestService_UseFile_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("theme: solarized\n"), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	s := NewService()
	s.UseFile(path)

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Theme != "solarized" {
		t.Errorf("expected theme solarized, got %s", cfg.Theme)
	}
}

func TestService_Load_InvalidTempScale(t *testing.T) {
	dir := t.TempDir()
	content := []byte("global:\n  temp_scale: lava\n")
	if err := os.WriteFile(filepath.Join(dir, "ttop.yaml"), content, 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	s := NewService(dir)
	if _, err := s.Load(); err == nil {
		t.Error("expected error for invalid temp_scale, got nil")
	}
}
