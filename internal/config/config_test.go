package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ingestor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-ingestor
api:
  base_url: https://api.example.com/v2
  access_token: test-token
feed:
  underlying: NIFTY
  strike_gap: 50
  strike_range: 5
sink:
  sqlite:
    enabled: true
    path: /tmp/ticks.db
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-ingestor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-ingestor")
	}
	if cfg.API.BaseURL != "https://api.example.com/v2" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://api.example.com/v2")
	}
	if cfg.Feed.StrikeGap != 50 {
		t.Errorf("Feed.StrikeGap = %v, want 50", cfg.Feed.StrikeGap)
	}
	if !cfg.Sink.SQLite.Enabled {
		t.Error("Sink.SQLite.Enabled = false, want true")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ACCESS_TOKEN", "secret-from-env")

	yaml := `
instance:
  id: test-ingestor
api:
  access_token: ${TEST_ACCESS_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.AccessToken != "secret-from-env" {
		t.Errorf("AccessToken = %q, want %q", cfg.API.AccessToken, "secret-from-env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-ingestor
api:
  access_token: tok
sink:
  sqlite:
    enabled: true
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.Feed.Underlying != DefaultUnderlying {
		t.Errorf("Underlying = %q, want default %q", cfg.Feed.Underlying, DefaultUnderlying)
	}
	if cfg.Feed.HeartbeatInterval != 20*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 20s", cfg.Feed.HeartbeatInterval)
	}
	if cfg.Feed.DriftProbeInterval != 30*time.Second {
		t.Errorf("DriftProbeInterval = %v, want 30s", cfg.Feed.DriftProbeInterval)
	}
	if cfg.Feed.RestartDelay != 5*time.Second {
		t.Errorf("RestartDelay = %v, want 5s", cfg.Feed.RestartDelay)
	}
	// Drift threshold defaults to one strike gap
	if cfg.Feed.DriftThreshold != cfg.Feed.StrikeGap {
		t.Errorf("DriftThreshold = %v, want %v", cfg.Feed.DriftThreshold, cfg.Feed.StrikeGap)
	}
	if cfg.Sink.SQLite.Path != DefaultSQLitePath {
		t.Errorf("SQLite.Path = %q, want default %q", cfg.Sink.SQLite.Path, DefaultSQLitePath)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d, want %d", cfg.Health.Port, DefaultHealthPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *IngestorConfig {
		cfg := &IngestorConfig{}
		cfg.Instance.ID = "test"
		cfg.API.AccessToken = "tok"
		cfg.Sink.SQLite.Enabled = true
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*IngestorConfig)
		wantErr bool
	}{
		{"valid", func(c *IngestorConfig) {}, false},
		{"missing instance id", func(c *IngestorConfig) { c.Instance.ID = "" }, true},
		{"missing access token", func(c *IngestorConfig) { c.API.AccessToken = "" }, true},
		{"zero strike gap", func(c *IngestorConfig) { c.Feed.StrikeGap = 0 }, true},
		{"negative strike range", func(c *IngestorConfig) { c.Feed.StrikeRange = -1 }, true},
		{"no sink enabled", func(c *IngestorConfig) { c.Sink.SQLite.Enabled = false }, true},
		{"redis enabled without addr", func(c *IngestorConfig) { c.Sink.Redis.Enabled = true }, true},
		{"bad health port", func(c *IngestorConfig) { c.Health.Port = 100000 }, true},
		{"postgres enabled incomplete", func(c *IngestorConfig) {
			c.Sink.Postgres.Enabled = true
			c.Sink.Postgres.Host = "localhost"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
