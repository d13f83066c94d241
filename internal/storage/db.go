package storage

import (
	"context"
	"errors"
	"fmt"
)

// Config selects the analytics and state databases. A nil section is not
// opened.
type Config struct {
	ClickHouse *ClickHouseConfig `yaml:"clickhouse"`
	Postgres   *PostgresConfig   `yaml:"postgres"`
}

// DB stores decoded blocks in whichever databases are configured: records in
// ClickHouse, target state in PostgreSQL.
type DB struct {
	CH *ClickHouseDB
	PG *PostgresDB
}

// Open connects to every database named in cfg.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	d := &DB{}
	if cfg.ClickHouse != nil {
		ch, err := OpenClickHouse(ctx, *cfg.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		d.CH = ch
	}
	if cfg.Postgres != nil {
		pg, err := OpenPostgres(ctx, *cfg.Postgres)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		d.PG = pg
	}
	return d, nil
}

// Empty reports whether no database is open.
func (d *DB) Empty() bool {
	return d.CH == nil && d.PG == nil
}

// Close closes the open connections.
func (d *DB) Close() error {
	var err error
	if d.CH != nil {
		if cerr := d.CH.Close(); cerr != nil {
			err = fmt.Errorf("clickhouse: %w", cerr)
		}
	}
	if d.PG != nil {
		d.PG.Close()
	}
	return err
}

// CreateSchemas creates the tables of the open databases.
func (d *DB) CreateSchemas(ctx context.Context) error {
	if d.CH != nil {
		if err := d.CH.CreateSchema(ctx); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	if d.PG != nil {
		if err := d.PG.CreateSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

// Store writes e to every open database. A failure in one does not stop the
// other; the errors are joined.
func (d *DB) Store(ctx context.Context, e Entry) error {
	var errs []error
	if d.CH != nil {
		if err := d.CH.InsertBatch(ctx, []Entry{e}); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	if d.PG != nil {
		if err := d.PG.UpsertTargets(ctx, TargetsFromEntry(e)); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
