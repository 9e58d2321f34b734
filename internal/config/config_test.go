package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Cache.MaxSize != 64 {
		t.Errorf("default cache max size = %d, want 64", cfg.Cache.MaxSize)
	}
	if cfg.Watch.Debounce() != 200*time.Millisecond {
		t.Errorf("default debounce = %v", cfg.Watch.Debounce())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q", cfg.Log.Level)
	}
	if cfg.Cache.MaxAge() != 0 {
		t.Errorf("default max age should be 0, got %v", cfg.Cache.MaxAge())
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawkit.toml")
	src := `[cache]
max_size = 128
max_age_seconds = 30

[rules]
dir = "/etc/lawkit/rules"

[log]
level = "debug"
pretty = true
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.MaxSize != 128 {
		t.Errorf("cache max size = %d, want 128", cfg.Cache.MaxSize)
	}
	if cfg.Cache.MaxAge() != 30*time.Second {
		t.Errorf("max age = %v, want 30s", cfg.Cache.MaxAge())
	}
	if cfg.Rules.Dir != "/etc/lawkit/rules" {
		t.Errorf("rules dir = %q", cfg.Rules.Dir)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("log config = %+v", cfg.Log)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawkit.yaml")
	src := `cache:
  max_size: 32
watch:
  debounce_ms: 50
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.MaxSize != 32 {
		t.Errorf("cache max size = %d, want 32", cfg.Cache.MaxSize)
	}
	if cfg.Watch.Debounce() != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", cfg.Watch.Debounce())
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.Cache.MaxSize != 64 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawkit.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawkit.toml")
	if err := os.WriteFile(path, []byte("cache = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LAWKIT_LOG_LEVEL", "error")
	t.Setenv("LAWKIT_CACHE_MAX_SIZE", "7")
	t.Setenv("LAWKIT_RULES_DIR", "/tmp/rules")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log level = %q, want error", cfg.Log.Level)
	}
	if cfg.Cache.MaxSize != 7 {
		t.Errorf("cache max size = %d, want 7", cfg.Cache.MaxSize)
	}
	if cfg.Rules.Dir != "/tmp/rules" {
		t.Errorf("rules dir = %q", cfg.Rules.Dir)
	}
}
