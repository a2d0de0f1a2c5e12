package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
)

const authorColumns = `
	a.id, a.name, a.full_name, a.dob,
	(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id)`

func scanAuthor(row pgx.Row, a *model.Author) error {
	var dob time.Time
	if err := row.Scan(&a.ID, &a.Name, &a.FullName, &dob, &a.BookCount); err != nil {
		return err
	}
	a.DOB = model.NewDate(dob.Year(), dob.Month(), dob.Day())
	return nil
}

func (db *DB) CreateAuthor(ctx context.Context, author *model.Author) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO authors (name, full_name, dob) VALUES ($1, $2, $3) RETURNING id`,
		author.Name, author.FullName, author.DOB.Time,
	).Scan(&author.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating author: %w", err)
	}
	author.BookCount = 0
	return nil
}

func (db *DB) GetAuthor(ctx context.Context, id int64) (*model.Author, error) {
	var author model.Author
	err := scanAuthor(db.pool.QueryRow(ctx,
		`SELECT `+authorColumns+` FROM authors a WHERE a.id = $1`, id,
	), &author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("author", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting author %d: %w", id, err)
	}
	return &author, nil
}

func (db *DB) ListAuthors(ctx context.Context) ([]model.Author, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+authorColumns+` FROM authors a ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing authors: %w", err)
	}
	defer rows.Close()

	authors := []model.Author{}
	for rows.Next() {
		var a model.Author
		if err := scanAuthor(rows, &a); err != nil {
			return nil, fmt.Errorf("postgres: scanning author row: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating authors: %w", err)
	}
	return authors, nil
}

func (db *DB) UpdateAuthor(ctx context.Context, author *model.Author) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE authors SET name = $1, full_name = $2, dob = $3 WHERE id = $4`,
		author.Name, author.FullName, author.DOB.Time, author.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating author %d: %w", author.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("author", strconv.FormatInt(author.ID, 10))
	}
	return nil
}

func (db *DB) DeleteAuthor(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(id, 10), "author still has books")
		}
		return fmt.Errorf("postgres: deleting author %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("author", strconv.FormatInt(id, 10))
	}
	return nil
}

func (db *DB) CountBooksByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE author_id = $1`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: counting books for author %d: %w", authorID, err)
	}
	return n, nil
}
