// Package storage provides persistent storage for decoded ASTERIX data.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// archiveTime is the received_at layout. It is fixed width so that text
// order is time order.
const archiveTime = "2006-01-02T15:04:05.000000000Z"

// Archive wraps a SQLite database holding raw data blocks and their decoded
// records.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates a SQLite archive at the given path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createArchiveSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func createArchiveSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		received_at TEXT NOT NULL,
		category INTEGER NOT NULL,
		length INTEGER NOT NULL,
		hex TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_messages_category ON messages(category);
	CREATE INDEX IF NOT EXISTS idx_messages_received ON messages(received_at);

	CREATE TABLE IF NOT EXISTS records (
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		category INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (message_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveMessage stores a data block and its records in one transaction.
func (a *Archive) SaveMessage(ctx context.Context, e Entry) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var decodeErr *string
	if e.Error != "" {
		decodeErr = &e.Error
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, received_at, category, length, hex, record_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.ReceivedAt.UTC().Format(archiveTime), e.Category, e.Length, e.Hex, len(e.Records), decodeErr)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	for i, rec := range e.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (message_id, seq, category, data) VALUES (?, ?, ?, ?)
		`, e.ID.String(), i, rec.Category, string(data))
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// StoredRecord is one archived record.
type StoredRecord struct {
	MessageID  string
	Seq        int
	Category   int
	ReceivedAt time.Time
	Data       string // Record JSON.
}

// RecordQuery filters archived records.
type RecordQuery struct {
	Category  int    // Filter by category, 0 for all.
	MessageID string // Filter by data block.
	Limit     int    // Max results (default 100).
	Offset    int
}

// Records returns archived records, newest data block first.
func (a *Archive) Records(ctx context.Context, q RecordQuery) ([]StoredRecord, error) {
	var conditions []string
	var args []any

	if q.Category != 0 {
		conditions = append(conditions, "r.category = ?")
		args = append(args, q.Category)
	}
	if q.MessageID != "" {
		conditions = append(conditions, "r.message_id = ?")
		args = append(args, q.MessageID)
	}

	query := `SELECT r.message_id, r.seq, r.category, m.received_at, r.data
		FROM records r JOIN messages m ON m.id = r.message_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" ORDER BY m.received_at DESC, r.message_id, r.seq LIMIT %d OFFSET %d", limit, q.Offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var r StoredRecord
		var receivedAt string
		if err := rows.Scan(&r.MessageID, &r.Seq, &r.Category, &receivedAt, &r.Data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.ReceivedAt, err = time.Parse(archiveTime, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse received_at: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// CategoryCount summarises the archived data blocks of one category.
type CategoryCount struct {
	Category int
	Messages int
	Records  int
	Failed   int
}

// CategoryCounts returns per-category totals ordered by category.
func (a *Archive) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(record_count), 0), COUNT(error)
		FROM messages
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Messages, &c.Records, &c.Failed); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
