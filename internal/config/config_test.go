package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Database.Path != "tracker.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL() != 24*time.Hour {
		t.Errorf("cache TTL = %v, want 24h", cfg.CacheTTL())
	}
	if cfg.BatchDelay() != 100*time.Millisecond {
		t.Errorf("batch delay = %v, want 100ms", cfg.BatchDelay())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = "9000"

[api]
key = "file-key"
timeout = "30s"

[cache]
ttl_hours = 6

[batch]
size = 5
delay_ms = 250
precache = ["pikachu", "charizard"]

[view]
page_size = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Server.Port)
	}
	if cfg.API.Key != "file-key" || cfg.APITimeout() != 30*time.Second {
		t.Errorf("api section not applied: %+v", cfg.API)
	}
	if cfg.CacheTTL() != 6*time.Hour {
		t.Errorf("ttl = %v, want 6h", cfg.CacheTTL())
	}
	if cfg.Batch.Size != 5 || cfg.BatchDelay() != 250*time.Millisecond {
		t.Errorf("batch section not applied: %+v", cfg.Batch)
	}
	if len(cfg.Batch.Precache) != 2 {
		t.Errorf("precache list not applied: %v", cfg.Batch.Precache)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Path != "tracker.db" {
		t.Errorf("database path = %q, want default", cfg.Database.Path)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = \"9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "7777")
	t.Setenv("POKEMON_TCG_API_KEY", "env-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("env PORT should win, got %q", cfg.Server.Port)
	}
	if cfg.API.Key != "env-key" {
		t.Errorf("env key should apply, got %q", cfg.API.Key)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.test" {
		t.Errorf("origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestBadTimeoutFallsBack(t *testing.T) {
	cfg := Default()
	cfg.API.Timeout = "not-a-duration"
	if cfg.APITimeout() != 10*time.Second {
		t.Errorf("bad timeout should fall back to 10s, got %v", cfg.APITimeout())
	}
}
