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

// bookSelect joins the owning author so every read carries the author's name.
const bookSelect = `
	SELECT b.id, b.title, b.description, b.release_date, b.author_id, a.name
	FROM books b
	JOIN authors a ON a.id = b.author_id`

func scanBook(row scanner, b *model.Book) error {
	// description is nullable; scanning into **string leaves it nil for NULL.
	return row.Scan(&b.ID, &b.Title, &b.Description, &b.ReleaseDate, &b.AuthorID, &b.AuthorName)
}

// CreateBook inserts a book and reloads it so AuthorName is filled in.
// A dangling author_id is rejected by the foreign key and reported as a
// conflict; the service normally catches it earlier.
func (db *DB) CreateBook(ctx context.Context, book *model.Book) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO books (title, description, release_date, author_id) VALUES (?, ?, ?, ?)`,
		book.Title,
		book.Description,
		book.ReleaseDate.String(),
		book.AuthorID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(book.AuthorID, 10), "author no longer exists")
		}
		return fmt.Errorf("sqlite: creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading book id: %w", err)
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

	err := scanBook(db.conn.QueryRowContext(ctx, bookSelect+` WHERE b.id = ?`, id), &book)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("book", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting book %d: %w", id, err)
	}

	return &book, nil
}

func (db *DB) ListBooks(ctx context.Context) ([]model.Book, error) {
	return db.queryBooks(ctx, "listing books", bookSelect+` ORDER BY b.id`)
}

// ListBooksByAuthor returns the author's books, or an empty slice. It does
// not check that the author exists; the service does.
func (db *DB) ListBooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	return db.queryBooks(ctx, "listing books by author",
		bookSelect+` WHERE b.author_id = ? ORDER BY b.id`, authorID)
}

func (db *DB) queryBooks(ctx context.Context, op, query string, args ...any) ([]model.Book, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("sqlite: scanning book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}

	return books, nil
}

// UpdateBook writes every mutable column and refreshes AuthorName, which
// changes when author_id does.
func (db *DB) UpdateBook(ctx context.Context, book *model.Book) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE books SET title = ?, description = ?, release_date = ?, author_id = ? WHERE id = ?`,
		book.Title,
		book.Description,
		book.ReleaseDate.String(),
		book.AuthorID,
		book.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("author", strconv.FormatInt(book.AuthorID, 10), "author no longer exists")
		}
		return fmt.Errorf("sqlite: updating book %d: %w", book.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
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
	result, err := db.conn.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting book %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("book", strconv.FormatInt(id, 10))
	}

	return nil
}
