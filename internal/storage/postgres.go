package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DefaultPostgresConfig returns the settings of a local development server.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "asterix_state",
		User:     "asterix",
		Password: "asterix",
	}
}

// PostgresDB wraps a PostgreSQL connection pool for target state.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (d *PostgresDB) Pool() *pgxpool.Pool {
	return d.pool
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS targets (
		category        SMALLINT NOT NULL,
		sac             SMALLINT NOT NULL,
		sic             SMALLINT NOT NULL,
		target_key      TEXT NOT NULL,
		address         TEXT,
		callsign        TEXT,
		mode3a          TEXT,
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		flight_level    DOUBLE PRECISION,
		first_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updates         INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (category, sac, sic, target_key)
	);

	CREATE INDEX IF NOT EXISTS idx_targets_last_seen ON targets(last_seen);
	CREATE INDEX IF NOT EXISTS idx_targets_callsign ON targets(callsign);
	`
	_, err := d.pool.Exec(ctx, schema)
	return err
}

// upsertTargetSQL merges a target report. Fields missing from the report
// keep their previous values.
const upsertTargetSQL = `
		INSERT INTO targets (category, sac, sic, target_key, address, callsign, mode3a, latitude, longitude, flight_level, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $11)
		ON CONFLICT (category, sac, sic, target_key) DO UPDATE SET
			address = COALESCE(EXCLUDED.address, targets.address),
			callsign = COALESCE(EXCLUDED.callsign, targets.callsign),
			mode3a = COALESCE(EXCLUDED.mode3a, targets.mode3a),
			latitude = COALESCE(EXCLUDED.latitude, targets.latitude),
			longitude = COALESCE(EXCLUDED.longitude, targets.longitude),
			flight_level = COALESCE(EXCLUDED.flight_level, targets.flight_level),
			last_seen = GREATEST(EXCLUDED.last_seen, targets.last_seen),
			updates = targets.updates + 1
	`

func upsertTargetArgs(t Target) []any {
	return []any{t.Category, t.SAC, t.SIC, t.Key, t.Address, t.Callsign, t.Mode3A, t.Latitude, t.Longitude, t.FlightLevel, t.LastSeen}
}

// UpsertTarget records a target report.
func (d *PostgresDB) UpsertTarget(ctx context.Context, t Target) error {
	if _, err := d.pool.Exec(ctx, upsertTargetSQL, upsertTargetArgs(t)...); err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

// UpsertTargets records the target reports of one data block in a single
// round trip.
func (d *PostgresDB) UpsertTargets(ctx context.Context, targets []Target) error {
	if len(targets) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, t := range targets {
		b.Queue(upsertTargetSQL, upsertTargetArgs(t)...)
	}

	br := d.pool.SendBatch(ctx, b)
	for _, t := range targets {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert target %s: %w", t.Key, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("upsert targets: %w", err)
	}
	return nil
}

const targetColumns = `category, sac, sic, target_key, COALESCE(address, ''), COALESCE(callsign, ''),
	COALESCE(mode3a, ''), latitude, longitude, flight_level, last_seen, updates`

func scanTarget(row pgx.Row) (*Target, error) {
	var t Target
	err := row.Scan(&t.Category, &t.SAC, &t.SIC, &t.Key, &t.Address, &t.Callsign,
		&t.Mode3A, &t.Latitude, &t.Longitude, &t.FlightLevel, &t.LastSeen, &t.Updates)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTarget retrieves one target. It returns nil when the target is unknown.
func (d *PostgresDB) GetTarget(ctx context.Context, category, sac, sic int, key string) (*Target, error) {
	t, err := scanTarget(d.pool.QueryRow(ctx, `
		SELECT `+targetColumns+`
		FROM targets WHERE category = $1 AND sac = $2 AND sic = $3 AND target_key = $4
	`, category, sac, sic, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return t, nil
}

// TargetQuery filters ListTargets.
type TargetQuery struct {
	Category int       // 0 for all categories.
	Since    time.Time // Only targets seen at or after Since.
	Limit    int       // Max results (default 100).
}

// ListTargets returns targets, most recently seen first.
func (d *PostgresDB) ListTargets(ctx context.Context, q TargetQuery) ([]Target, error) {
	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := d.pool.Query(ctx, `
		SELECT `+targetColumns+`
		FROM targets
		WHERE ($1 = 0 OR category = $1) AND last_seen >= $2
		ORDER BY last_seen DESC
		LIMIT $3
	`, q.Category, q.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, *t)
	}
	return targets, rows.Err()
}
