// Package main provides the asterix-feed daemon.
//
// It subscribes to a NATS subject carrying raw ASTERIX data blocks, decodes
// them and stores the results in the configured databases:
//
//   - SQLite archive of blocks and records (archive)
//   - ClickHouse record table (clickhouse)
//   - PostgreSQL target state (postgres)
//
// Decoded blocks are republished as JSON when an output subject is set.
//
// Usage:
//
//	asterix-feed [-config asterix.yaml] [options]
//
// Settings come from the defaults, then the config file, then the
// environment (NATS_URL, NATS_SUBJECT, NATS_QUEUE, NATS_OUTPUT_SUBJECT,
// DEDUPE_TTL, ARCHIVE_PATH, CLICKHOUSE_*, POSTGRES_*), then flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	_ "asterix_decoder/internal/categories" // register all categories via init()
	"asterix_decoder/internal/config"
	"asterix_decoder/internal/feed"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

func main() {
	configPath := flag.String("config", envOrDefault("ASTERIX_CONFIG", ""), "YAML config file")
	natsURL := flag.String("nats-url", "", "NATS server URL")
	subject := flag.String("subject", "", "Subject carrying raw data blocks")
	queue := flag.String("queue", "", "Queue group")
	outputSubject := flag.String("output-subject", "", "Subject for decoded JSON")
	dedupeTTL := flag.Duration("dedupe-ttl", 0, "Duplicate suppression window (0 disables)")
	archivePath := flag.String("archive", "", "SQLite archive path")
	createSchema := flag.Bool("create-schema", false, "Create ClickHouse and PostgreSQL tables on startup")
	statsInterval := flag.Duration("stats-interval", time.Minute, "How often to log counters (0 disables)")
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
		case "nats-url":
			cfg.Feed.URL = *natsURL
		case "subject":
			cfg.Feed.Subject = *subject
		case "queue":
			cfg.Feed.Queue = *queue
		case "output-subject":
			cfg.Feed.OutputSubject = *outputSubject
		case "dedupe-ttl":
			cfg.Feed.DedupeTTL = *dedupeTTL
		case "archive":
			cfg.Archive = *archivePath
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks, err := openSinks(ctx, cfg, *createSchema)
	if err != nil {
		log.Fatalf("Error opening storage: %v", err)
	}
	defer closeSinks()

	reg := registry.Default()
	log.Printf("Loaded %d categories: %v", reg.Count(), reg.IDs())

	f := feed.New(cfg.Feed, reg, sinks...)

	nc, err := feed.Connect(cfg.Feed.URL, "asterix-feed")
	if err != nil {
		log.Fatalf("Error connecting to NATS: %v", err)
	}
	defer nc.Close()

	if *statsInterval > 0 {
		go logStats(ctx, f, *statsInterval)
	}

	if err := f.Run(ctx, nc); err != nil {
		log.Fatalf("Feed error: %v", err)
	}
	logCounters(f.Stats())
	log.Printf("Shutting down")
}

// openSinks opens every configured store. The returned func closes them.
func openSinks(ctx context.Context, cfg config.Config, createSchema bool) ([]feed.Sink, func(), error) {
	var sinks []feed.Sink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Archive != "" {
		archive, err := storage.OpenArchive(cfg.Archive)
		if err != nil {
			return nil, nil, fmt.Errorf("archive: %w", err)
		}
		closers = append(closers, func() { _ = archive.Close() })
		sinks = append(sinks, feed.SinkFunc(archive.SaveMessage))
		log.Printf("Archiving to %s", cfg.Archive)
	}

	if cfg.ClickHouse != nil || cfg.Postgres != nil {
		db, err := storage.Open(ctx, cfg.Config)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if createSchema {
			if err := db.CreateSchemas(ctx); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		sinks = append(sinks, db)
		if db.CH != nil {
			log.Printf("Storing records in ClickHouse %s", cfg.ClickHouse.Host)
		}
		if db.PG != nil {
			log.Printf("Storing targets in PostgreSQL %s", cfg.Postgres.Host)
		}
	}

	if len(sinks) == 0 {
		log.Printf("No storage configured, decoding only")
	}
	return sinks, closeAll, nil
}

func logStats(ctx context.Context, f *feed.Feed, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logCounters(f.Stats())
		}
	}
}

func logCounters(st feed.Stats) {
	log.Printf("Stats: payloads=%s blocks=%s records=%s failed=%s duplicates=%s rejected=%s sink_errors=%s",
		humanize.Comma(st.Payloads), humanize.Comma(st.Blocks), humanize.Comma(st.Records),
		humanize.Comma(st.Failed), humanize.Comma(st.Duplicates), humanize.Comma(st.Rejected),
		humanize.Comma(st.SinkErrors))
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
