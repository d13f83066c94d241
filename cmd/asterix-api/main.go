// Package main provides the asterix-api server.
//
// Usage:
//
//	asterix-api [-config asterix.yaml] [options]
//
// Options:
//
//	-config FILE        YAML config file (env: ASTERIX_CONFIG)
//	-port N             HTTP port (default: 8080, env: API_PORT)
//	-auth               Enable API key authentication
//	-api-keys KEYS      Comma-separated list of valid API keys (env: API_KEYS)
//
// PostgreSQL is used for the target endpoints when the config file has a
// postgres section or any POSTGRES_* variable is set.
//
// API Endpoints:
//
//	GET /api/v1/health
//	    Health check endpoint.
//
//	GET /api/v1/categories
//	    Registered categories and their data items.
//
//	POST /api/v1/decode
//	    Decode one hex data block. Body: hex text or {"hex": "..."}.
//
//	GET /api/v1/targets?category=N&since=10m&limit=N
//	    Most recently seen targets.
//
//	GET /api/v1/targets/{category}/{sac}/{sic}/{key}
//	    One target, keyed by TN<track number> or TA<address>.
//
// Authentication:
//
//	When -auth is enabled, requests must include an API key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"asterix_decoder/internal/api"
	_ "asterix_decoder/internal/categories" // register all categories via init()
	"asterix_decoder/internal/config"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

func main() {
	configPath := flag.String("config", envOrDefault("ASTERIX_CONFIG", ""), "YAML config file")
	port := flag.Int("port", 8080, "HTTP port for API server")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error in environment: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.API.Port = *port
		case "auth":
			cfg.API.AuthEnabled = *authEnabled
		case "api-keys":
			cfg.API.APIKeys = nil
			for _, k := range strings.Split(*apiKeys, ",") {
				if k = strings.TrimSpace(k); k != "" {
					cfg.API.APIKeys = append(cfg.API.APIKeys, k)
				}
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var targets api.TargetStore
	if cfg.Postgres != nil {
		pg, err := storage.OpenPostgres(ctx, *cfg.Postgres)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()
		targets = pg
	}

	server := api.NewServer(registry.Default(), targets, cfg.API)
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
