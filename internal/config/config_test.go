package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
feed:
  url: nats://nats:4222
  subject: radar.cat062
  queue: decoders
  dedupe_ttl: 5s
archive: /var/lib/asterix/archive.db
postgres:
  host: db
  port: 5433
  database: tracks
  user: asterix
  password: secret
api:
  port: 9090
  auth_enabled: true
  api_keys: [one, two]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Feed.URL != "nats://nats:4222" || cfg.Feed.Subject != "radar.cat062" || cfg.Feed.Queue != "decoders" {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.Feed.DedupeTTL != 5*time.Second {
		t.Errorf("dedupe_ttl = %v, want 5s", cfg.Feed.DedupeTTL)
	}
	if cfg.Feed.Buffer != 1024 {
		t.Errorf("buffer = %d, want default 1024", cfg.Feed.Buffer)
	}
	if cfg.Archive != "/var/lib/asterix/archive.db" {
		t.Errorf("archive = %q", cfg.Archive)
	}
	if cfg.ClickHouse != nil {
		t.Errorf("clickhouse = %+v, want nil", cfg.ClickHouse)
	}
	if cfg.Postgres == nil || cfg.Postgres.Host != "db" || cfg.Postgres.Port != 5433 {
		t.Errorf("postgres = %+v", cfg.Postgres)
	}
	if cfg.API.Port != 9090 || !cfg.API.AuthEnabled || !reflect.DeepEqual(cfg.API.APIKeys, []string{"one", "two"}) {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "feed:\n  topic: x\n"},
		{"bad duration", "feed:\n  dedupe_ttl: soon\n"},
		{"wrong type", "api:\n  port: eighty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asterix.yaml")
	if err := os.WriteFile(path, []byte("archive: test.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive != "test.db" {
		t.Errorf("archive = %q", cfg.Archive)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	cfg, err = Load("")
	if err != nil || !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"NATS_URL":            "nats://feed:4222",
		"NATS_OUTPUT_SUBJECT": "asterix.decoded",
		"DEDUPE_TTL":          "1m",
		"ARCHIVE_PATH":        "/data/a.db",
		"CLICKHOUSE_HOST":     "ch",
		"API_PORT":            "8181",
		"API_KEYS":            "a, b,,",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Feed.URL != "nats://feed:4222" || cfg.Feed.OutputSubject != "asterix.decoded" {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.Feed.Subject != "asterix.raw" {
		t.Errorf("subject = %q, want the default", cfg.Feed.Subject)
	}
	if cfg.Feed.DedupeTTL != time.Minute {
		t.Errorf("dedupe_ttl = %v", cfg.Feed.DedupeTTL)
	}
	if cfg.Archive != "/data/a.db" {
		t.Errorf("archive = %q", cfg.Archive)
	}
	if cfg.ClickHouse == nil || cfg.ClickHouse.Host != "ch" || cfg.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse = %+v", cfg.ClickHouse)
	}
	if cfg.Postgres != nil {
		t.Errorf("postgres = %+v, want nil", cfg.Postgres)
	}
	if cfg.API.Port != 8181 || !cfg.API.AuthEnabled || !reflect.DeepEqual(cfg.API.APIKeys, []string{"a", "b"}) {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	cfg, err := Parse([]byte("postgres:\n  host: file-host\n  port: 5432\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ApplyEnv(env(map[string]string{"POSTGRES_PORT": "6543"})); err != nil {
		t.Fatal(err)
	}
	if cfg.Postgres.Host != "file-host" || cfg.Postgres.Port != 6543 {
		t.Errorf("postgres = %+v", cfg.Postgres)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad ttl", map[string]string{"DEDUPE_TTL": "often"}, "DEDUPE_TTL"},
		{"bad api port", map[string]string{"API_PORT": "http"}, "API_PORT"},
		{"bad postgres port", map[string]string{"POSTGRES_PORT": "x"}, "POSTGRES_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(env(tt.vars))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want an error naming %s", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no subject", func(c *Config) { c.Feed.Subject = "" }, true},
		{"negative ttl", func(c *Config) { c.Feed.DedupeTTL = -time.Second }, true},
		{"port zero", func(c *Config) { c.API.Port = 0 }, true},
		{"port too large", func(c *Config) { c.API.Port = 70000 }, true},
		{"auth without keys", func(c *Config) { c.API.AuthEnabled = true }, true},
		{"auth with keys", func(c *Config) {
			c.API.AuthEnabled = true
			c.API.APIKeys = []string{"k"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
