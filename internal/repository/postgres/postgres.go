// Package postgres implements the repository interfaces on PostgreSQL using
// a pgx connection pool.
//
// It mirrors the sqlite package query for query. The differences are the
// placeholder style ($1), native DATE columns and RETURNING for generated ids.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/bookstore-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// foreignKeyViolation is the SQLSTATE Postgres reports when books.author_id
// would dangle.
const foreignKeyViolation = "23503"

// DB wraps a pgxpool.Pool and implements repository.Store.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and bootstraps the
// schema.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection. It always returns nil; the error
// is there to satisfy repository.Store.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS authors (
			id        BIGSERIAL PRIMARY KEY,
			name      TEXT NOT NULL,
			full_name TEXT NOT NULL,
			dob       DATE NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating authors table: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS books (
			id           BIGSERIAL PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT,
			release_date DATE NOT NULL,
			author_id    BIGINT NOT NULL REFERENCES authors(id)
		)`)
	if err != nil {
		return fmt.Errorf("creating books table: %w", err)
	}

	_, err = db.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id)`)
	if err != nil {
		return fmt.Errorf("creating books author index: %w", err)
	}

	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
