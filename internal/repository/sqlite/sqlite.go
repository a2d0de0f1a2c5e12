// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross-compiles
// like any other Go package. Good for single-node deployments, local
// development and tests (":memory:" gives every test a fresh database).
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB      = a connection pool (NOT a single connection!)
//   - sql.Row     = a single result row
//   - sql.Rows    = multiple result rows (must be closed!)
//
// Dates are stored as TEXT in the API's own YYYY/MM/DD layout, so what a
// client sends is byte-for-byte what comes back.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// The driver registers itself with database/sql as "sqlite" in init().
	// It is imported by name too, for its error codes.
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/bookstore-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens the database at dsn and bootstraps the schema.
//
// dsn examples:
//   - "data/bookstore.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
//
// CONNECTION POOL OF ONE:
// SQLite allows one writer at a time and an in-memory database exists per
// connection, so the pool is capped at a single connection. PRAGMAs are
// per-connection too, which this also keeps consistent.
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. books.author_id depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping checks the connection is still usable. Used by the readiness check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables if they do not exist yet.
//
// Schema evolution is handled outside the service; this only makes a fresh
// database usable.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS authors (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			name      TEXT NOT NULL,
			full_name TEXT NOT NULL,
			dob       TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating authors table: %w", err)
	}

	// No ON DELETE CASCADE: deleting an author that still owns books must fail.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			description  TEXT,
			release_date TEXT NOT NULL,
			author_id    INTEGER NOT NULL REFERENCES authors(id)
		);
		CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating books table: %w", err)
	}

	return nil
}

// isForeignKeyViolation reports whether err is SQLite refusing a write
// because of books.author_id.
func isForeignKeyViolation(err error) bool {
	var se *sqlitedriver.Error
	if errors.As(err, &se) {
		if se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		// Without extended result codes only the primary code is set.
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(se.Error(), "FOREIGN KEY")
	}
	return false
}
