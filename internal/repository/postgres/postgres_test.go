package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
)

// newTestDB connects to TEST_DATABASE_URL and empties both tables.
// Without the variable the test is skipped, so `go test ./...` stays
// runnable on machines without Postgres.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.pool.Exec(ctx, `TRUNCATE books, authors RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func TestAuthorAndBookLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := &model.Author{Name: "Butler", FullName: "Octavia Estelle Butler", DOB: model.NewDate(1947, time.June, 22)}
	require.NoError(t, db.CreateAuthor(ctx, author))
	assert.NotZero(t, author.ID)

	book := &model.Book{Title: "Kindred", ReleaseDate: model.NewDate(1979, time.June, 1), AuthorID: author.ID}
	require.NoError(t, db.CreateBook(ctx, book))
	assert.Equal(t, "Butler", book.AuthorName)
	assert.Nil(t, book.Description)

	got, err := db.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "1947/06/22", got.DOB.String())
	assert.Equal(t, 1, got.BookCount)

	byAuthor, err := db.ListBooksByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "1979/06/01", byAuthor[0].ReleaseDate.String())

	err = db.DeleteAuthor(ctx, author.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	desc := "Time travel."
	book.Description = &desc
	require.NoError(t, db.UpdateBook(ctx, book))

	fetched, err := db.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Description)
	assert.Equal(t, desc, *fetched.Description)

	require.NoError(t, db.DeleteBook(ctx, book.ID))
	require.NoError(t, db.DeleteAuthor(ctx, author.ID))

	_, err = db.GetAuthor(ctx, author.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, db.DeleteBook(ctx, book.ID), apperror.ErrNotFound)
}

func TestCreateBook_DanglingAuthor(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateBook(context.Background(), &model.Book{Title: "x", ReleaseDate: model.NewDate(2000, 1, 1), AuthorID: 9999})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
