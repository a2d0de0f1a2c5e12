package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
	"github.com/sakif/bookstore-api/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements both repository interfaces in memory. failOn makes a
// named method return errBoom, to simulate the database going away.

var errBoom = errors.New("database is locked")

var (
	_ repository.AuthorRepository = (*fakeStore)(nil)
	_ repository.BookRepository   = (*fakeStore)(nil)
)

type fakeStore struct {
	authors map[int64]model.Author
	books   map[int64]model.Book
	nextID  int64
	failOn  map[string]bool
	writes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		authors: map[int64]model.Author{},
		books:   map[int64]model.Book{},
		failOn:  map[string]bool{},
	}
}

func (f *fakeStore) fail(op string) error {
	if f.failOn[op] {
		return errBoom
	}
	return nil
}

func (f *fakeStore) countBooks(authorID int64) int {
	n := 0
	for _, b := range f.books {
		if b.AuthorID == authorID {
			n++
		}
	}
	return n
}

func (f *fakeStore) CreateAuthor(_ context.Context, a *model.Author) error {
	if err := f.fail("CreateAuthor"); err != nil {
		return err
	}
	f.nextID++
	a.ID = f.nextID
	f.authors[a.ID] = *a
	f.writes++
	return nil
}

func (f *fakeStore) GetAuthor(_ context.Context, id int64) (*model.Author, error) {
	if err := f.fail("GetAuthor"); err != nil {
		return nil, err
	}
	a, ok := f.authors[id]
	if !ok {
		return nil, apperror.NotFound("author", strconv.FormatInt(id, 10))
	}
	a.BookCount = f.countBooks(id)
	return &a, nil
}

func (f *fakeStore) ListAuthors(_ context.Context) ([]model.Author, error) {
	if err := f.fail("ListAuthors"); err != nil {
		return nil, err
	}
	out := []model.Author{}
	for id := int64(1); id <= f.nextID; id++ {
		if a, ok := f.authors[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAuthor(_ context.Context, a *model.Author) error {
	if err := f.fail("UpdateAuthor"); err != nil {
		return err
	}
	if _, ok := f.authors[a.ID]; !ok {
		return apperror.NotFound("author", strconv.FormatInt(a.ID, 10))
	}
	f.authors[a.ID] = *a
	f.writes++
	return nil
}

func (f *fakeStore) DeleteAuthor(_ context.Context, id int64) error {
	if err := f.fail("DeleteAuthor"); err != nil {
		return err
	}
	if _, ok := f.authors[id]; !ok {
		return apperror.NotFound("author", strconv.FormatInt(id, 10))
	}
	delete(f.authors, id)
	f.writes++
	return nil
}

func (f *fakeStore) CountBooksByAuthor(_ context.Context, authorID int64) (int, error) {
	if err := f.fail("CountBooksByAuthor"); err != nil {
		return 0, err
	}
	return f.countBooks(authorID), nil
}

func (f *fakeStore) CreateBook(_ context.Context, b *model.Book) error {
	if err := f.fail("CreateBook"); err != nil {
		return err
	}
	f.nextID++
	b.ID = f.nextID
	b.AuthorName = f.authors[b.AuthorID].Name
	f.books[b.ID] = *b
	f.writes++
	return nil
}

func (f *fakeStore) GetBook(_ context.Context, id int64) (*model.Book, error) {
	if err := f.fail("GetBook"); err != nil {
		return nil, err
	}
	b, ok := f.books[id]
	if !ok {
		return nil, apperror.NotFound("book", strconv.FormatInt(id, 10))
	}
	return &b, nil
}

func (f *fakeStore) ListBooks(_ context.Context) ([]model.Book, error) {
	if err := f.fail("ListBooks"); err != nil {
		return nil, err
	}
	out := []model.Book{}
	for id := int64(1); id <= f.nextID; id++ {
		if b, ok := f.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	all, err := f.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Book{}
	for _, b := range all {
		if b.AuthorID == authorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateBook(_ context.Context, b *model.Book) error {
	if err := f.fail("UpdateBook"); err != nil {
		return err
	}
	if _, ok := f.books[b.ID]; !ok {
		return apperror.NotFound("book", strconv.FormatInt(b.ID, 10))
	}
	b.AuthorName = f.authors[b.AuthorID].Name
	f.books[b.ID] = *b
	f.writes++
	return nil
}

func (f *fakeStore) DeleteBook(_ context.Context, id int64) error {
	if err := f.fail("DeleteBook"); err != nil {
		return err
	}
	if _, ok := f.books[id]; !ok {
		return apperror.NotFound("book", strconv.FormatInt(id, 10))
	}
	delete(f.books, id)
	f.writes++
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServices(t *testing.T) (*AuthorService, *BookService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := testLogger()
	return NewAuthorService(store, logger), NewBookService(store, store, logger), store
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

// some and null build patch fields the way the JSON decoder would.
func some[T any](v T) model.Optional[T] { return model.Optional[T]{Set: true, Value: v} }

func null[T any]() model.Optional[T] { return model.Optional[T]{Set: true, Null: true} }

func seedAuthor(t *testing.T, svc *AuthorService, name string) *model.Author {
	t.Helper()
	a, err := svc.Create(context.Background(), model.NewAuthor{
		Name:     name,
		FullName: name + " Full",
		DOB:      strPtr("1950/01/01"),
	})
	if err != nil {
		t.Fatalf("seeding author: %v", err)
	}
	return a
}

func seedBook(t *testing.T, svc *BookService, authorID int64, title string) *model.Book {
	t.Helper()
	b, err := svc.Create(context.Background(), model.NewBook{
		Title:       title,
		ReleaseDate: strPtr("2001/02/03"),
		AuthorID:    int64Ptr(authorID),
	})
	if err != nil {
		t.Fatalf("seeding book: %v", err)
	}
	return b
}
