// Package config loads the settings shared by the feed daemon and the API
// server from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"asterix_decoder/internal/api"
	"asterix_decoder/internal/feed"
	"asterix_decoder/internal/storage"
)

// Config is the top level configuration file. A nil database section leaves
// that database unused.
type Config struct {
	Feed           feed.Config `yaml:"feed"`
	Archive        string      `yaml:"archive"` // SQLite archive path, empty to disable.
	storage.Config `yaml:",inline"`
	API            api.Config `yaml:"api"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Feed: feed.DefaultConfig(),
		API:  api.Config{Port: 8080},
	}
}

// Parse reads YAML on top of the defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration file at path. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// ApplyEnv overrides settings from environment variables. Setting any
// CLICKHOUSE_ or POSTGRES_ variable enables that database with the default
// connection settings as a base.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	has := func(prefix string) bool {
		for _, k := range []string{"HOST", "PORT", "DATABASE", "USER", "PASSWORD"} {
			if v, ok := lookup(prefix + k); ok && v != "" {
				return true
			}
		}
		return false
	}

	str("NATS_URL", &c.Feed.URL)
	str("NATS_SUBJECT", &c.Feed.Subject)
	str("NATS_QUEUE", &c.Feed.Queue)
	str("NATS_OUTPUT_SUBJECT", &c.Feed.OutputSubject)
	if v, ok := lookup("DEDUPE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DEDUPE_TTL: %w", err)
		}
		c.Feed.DedupeTTL = d
	}
	str("ARCHIVE_PATH", &c.Archive)

	if has("CLICKHOUSE_") {
		if c.ClickHouse == nil {
			ch := storage.DefaultClickHouseConfig()
			c.ClickHouse = &ch
		}
		str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
		if err := num("CLICKHOUSE_PORT", &c.ClickHouse.Port); err != nil {
			return err
		}
		str("CLICKHOUSE_DATABASE", &c.ClickHouse.Database)
		str("CLICKHOUSE_USER", &c.ClickHouse.User)
		str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	}
	if has("POSTGRES_") {
		if c.Postgres == nil {
			pg := storage.DefaultPostgresConfig()
			c.Postgres = &pg
		}
		str("POSTGRES_HOST", &c.Postgres.Host)
		if err := num("POSTGRES_PORT", &c.Postgres.Port); err != nil {
			return err
		}
		str("POSTGRES_DATABASE", &c.Postgres.Database)
		str("POSTGRES_USER", &c.Postgres.User)
		str("POSTGRES_PASSWORD", &c.Postgres.Password)
	}

	if err := num("API_PORT", &c.API.Port); err != nil {
		return err
	}
	if v, ok := lookup("API_KEYS"); ok && v != "" {
		c.API.APIKeys = splitKeys(v)
		c.API.AuthEnabled = len(c.API.APIKeys) > 0
	}
	return nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks the settings a command cannot run without.
func (c *Config) Validate() error {
	if c.Feed.Subject == "" {
		return errors.New("feed.subject is required")
	}
	if c.Feed.DedupeTTL < 0 {
		return errors.New("feed.dedupe_ttl must not be negative")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.API.AuthEnabled && len(c.API.APIKeys) == 0 {
		return errors.New("api.auth_enabled requires api.api_keys")
	}
	return nil
}
