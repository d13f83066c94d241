package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DefaultClickHouseConfig returns the settings of a local development server.
func DefaultClickHouseConfig() ClickHouseConfig {
	return ClickHouseConfig{
		Host:     "localhost",
		Port:     9000,
		Database: "asterix",
		User:     "default",
	}
}

// ClickHouseDB wraps a ClickHouse connection for record analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS asterix_records (
		message_id      UUID,
		received_at     DateTime64(3),
		category        UInt8,
		sac             UInt8,
		sic             UInt8,
		seq             UInt16,
		target_key      String,
		data            String
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(received_at)
	ORDER BY (category, sac, sic, received_at, message_id, seq)
	SETTINGS index_granularity = 8192`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertBatch stores the records of every entry, one row per record. The
// batch is aborted, releasing its connection, unless it was sent.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO asterix_records (message_id, received_at, category, sac, sic, seq, target_key, data)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	sent := false
	defer func() {
		if !sent {
			_ = batch.Abort()
		}
	}()

	rows := 0
	for _, e := range entries {
		for i, rec := range e.Records {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			var sac, sic uint8
			var key string
			if t, ok := TargetFromRecord(rec, e.ReceivedAt); ok {
				sac, sic, key = uint8(t.SAC), uint8(t.SIC), t.Key
			}
			err = batch.Append(e.ID, e.ReceivedAt, uint8(e.Category), sac, sic, uint16(i), key, string(data))
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
			rows++
		}
	}
	if rows == 0 {
		return nil
	}

	sent = true
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByCategory returns the number of stored records per category.
func (d *ClickHouseDB) CountByCategory(ctx context.Context) (map[int]uint64, error) {
	rows, err := d.conn.Query(ctx, `SELECT category, count() FROM asterix_records GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]uint64)
	for rows.Next() {
		var category uint8
		var n uint64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[int(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return counts, nil
}
