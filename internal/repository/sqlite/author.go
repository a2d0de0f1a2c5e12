package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
)

// authorColumns selects an author plus the number of books it owns.
// The sub-select keeps number_of_books correct without a stored counter.
const authorColumns = `
	a.id, a.name, a.full_name, a.dob,
	(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row scanner, a *model.Author) error {
	return row.Scan(&a.ID, &a.Name, &a.FullName, &a.DOB, &a.BookCount)
}

// CreateAuthor inserts a new author and sets its generated ID.
//
// The ID comes from INTEGER PRIMARY KEY AUTOINCREMENT, so ids are never
// reused even after deletes.
func (db *DB) CreateAuthor(ctx context.Context, author *model.Author) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO authors (name, full_name, dob) VALUES (?, ?, ?)`,
		author.Name,
		author.FullName,
		author.DOB.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating author: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading author id: %w", err)
	}
	author.ID = id
	author.BookCount = 0

	return nil
}

// GetAuthor retrieves a single author by its ID.
// sql.ErrNoRows becomes apperror.NotFound so the handler can answer 404.
func (db *DB) GetAuthor(ctx context.Context, id int64) (*model.Author, error) {
	var author model.Author

	err := scanAuthor(db.conn.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors a WHERE a.id = ?`,
		id,
	), &author)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("author", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting author %d: %w", id, err)
	}

	return &author, nil
}

// ListAuthors returns every author ordered by id.
func (db *DB) ListAuthors(ctx context.Context) ([]model.Author, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors a ORDER BY a.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing authors: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	authors := []model.Author{}
	for rows.Next() {
		var a model.Author
		if err := scanAuthor(rows, &a); err != nil {
			return nil, fmt.Errorf("sqlite: scanning author row: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating authors: %w", err)
	}

	return authors, nil
}

// UpdateAuthor writes every mutable column. The service has already merged
// the patch onto the current record.
func (db *DB) UpdateAuthor(ctx context.Context, author *model.Author) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE authors SET name = ?, full_name = ?, dob = ? WHERE id = ?`,
		author.Name,
		author.FullName,
		author.DOB.String(),
		author.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating author %d: %w", author.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("author", strconv.FormatInt(author.ID, 10))
	}

	return nil
}

// DeleteAuthor removes an author. SQLite refuses while books still point at
// it; that surfaces as apperror.Conflict.
func (db *DB) DeleteAuthor(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM authors WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(id, 10), "author still has books")
		}
		return fmt.Errorf("sqlite: deleting author %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("author", strconv.FormatInt(id, 10))
	}

	return nil
}

// CountBooksByAuthor returns how many books reference the author.
func (db *DB) CountBooksByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE author_id = ?`,
		authorID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting books for author %d: %w", authorID, err)
	}
	return n, nil
}
