// Package repository declares the storage contracts the service layer
// depends on. Implementations live in sub-packages (sqlite, postgres) and
// translate "row does not exist" into apperror.ErrNotFound; every other
// driver failure is returned wrapped for the service to classify.
package repository

import (
	"context"

	"github.com/sakif/bookstore-api/internal/model"
)

type AuthorRepository interface {
	CreateAuthor(ctx context.Context, author *model.Author) error
	GetAuthor(ctx context.Context, id int64) (*model.Author, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	UpdateAuthor(ctx context.Context, author *model.Author) error
	DeleteAuthor(ctx context.Context, id int64) error
	CountBooksByAuthor(ctx context.Context, authorID int64) (int, error)
}

type BookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	ListBooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error)
	UpdateBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, id int64) error
}

// Store is a full backend: both repositories plus lifecycle.
type Store interface {
	AuthorRepository
	BookRepository
	Ping(ctx context.Context) error
	Close() error
}
