package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/bookstore-api/internal/repository"
	pgRepo "github.com/sakif/bookstore-api/internal/repository/postgres"
	sqliteRepo "github.com/sakif/bookstore-api/internal/repository/sqlite"
)

// OpenStore picks the backend from the URL scheme.
//
//	postgres://... or postgresql://...  → Postgres (pgx pool)
//	sqlite://data/bookstore.db          → SQLite file data/bookstore.db
//	file:bookstore.db?cache=shared      → SQLite, DSN passed through
//	data/bookstore.db, :memory:         → SQLite
//
// For file-backed SQLite the parent directory is created if needed.
func OpenStore(ctx context.Context, databaseURL string) (repository.Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := pgRepo.New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil

	case strings.HasPrefix(databaseURL, "file:"):
		return openSQLite(databaseURL)

	default:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path in %q", databaseURL)
		}
		if path != ":memory:" {
			dir := filepath.Dir(path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		return openSQLite(path)
	}
}

func openSQLite(dsn string) (repository.Store, error) {
	db, err := sqliteRepo.New(dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}
