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

const bookSelect = `
	SELECT b.id, b.title, b.description, b.release_date, b.author_id, a.name
	FROM books b
	JOIN authors a ON a.id = b.author_id`

func scanBook(row pgx.Row, b *model.Book) error {
	var released time.Time
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &released, &b.AuthorID, &b.AuthorName); err != nil {
		return err
	}
	b.ReleaseDate = model.NewDate(released.Year(), released.Month(), released.Day())
	return nil
}

func (db *DB) CreateBook(ctx context.Context, book *model.Book) error {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO books (title, description, release_date, author_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		book.Title, book.Description, book.ReleaseDate.Time, book.AuthorID,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(book.AuthorID, 10), "author no longer exists")
		}
		return fmt.Errorf("postgres: creating book: %w", err)
	}

	created, err := db.GetBook(ctx, id)
	if err != nil {
		return err
	}
	*book = *created
	return nil
}

func (db *DB) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	var book model.Book
	err := scanBook(db.pool.QueryRow(ctx, bookSelect+` WHERE b.id = $1`, id), &book)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("book", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting book %d: %w", id, err)
	}
	return &book, nil
}

func (db *DB) ListBooks(ctx context.Context) ([]model.Book, error) {
	return db.queryBooks(ctx, "listing books", bookSelect+` ORDER BY b.id`)
}

func (db *DB) ListBooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	return db.queryBooks(ctx, "listing books by author",
		bookSelect+` WHERE b.author_id = $1 ORDER BY b.id`, authorID)
}

func (db *DB) queryBooks(ctx context.Context, op, query string, args ...any) ([]model.Book, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("postgres: scanning book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	return books, nil
}

func (db *DB) UpdateBook(ctx context.Context, book *model.Book) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE books SET title = $1, description = $2, release_date = $3, author_id = $4 WHERE id = $5`,
		book.Title, book.Description, book.ReleaseDate.Time, book.AuthorID, book.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(book.AuthorID, 10), "author no longer exists")
		}
		return fmt.Errorf("postgres: updating book %d: %w", book.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("book", strconv.FormatInt(book.ID, 10))
	}

	updated, err := db.GetBook(ctx, book.ID)
	if err != nil {
		return err
	}
	*book = *updated
	return nil
}

func (db *DB) DeleteBook(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting book %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("book", strconv.FormatInt(id, 10))
	}
	return nil
}
