package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
	"github.com/sakif/bookstore-api/internal/repository"
)

// BookService handles business logic for books. It needs the author
// repository too, to check author_id references and to 404 the
// books-by-author listing.
type BookService struct {
	books   repository.BookRepository
	authors repository.AuthorRepository
	logger  *slog.Logger
}

func NewBookService(books repository.BookRepository, authors repository.AuthorRepository, logger *slog.Logger) *BookService {
	return &BookService{
		books:   books,
		authors: authors,
		logger:  logger,
	}
}

func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, storeError(s.logger, "listing books", err)
	}
	return books, nil
}

// ListByAuthor returns the author's books. An unknown author is a 404; a
// known author without books is an empty list.
func (s *BookService) ListByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	if _, err := s.authors.GetAuthor(ctx, authorID); err != nil {
		return nil, storeError(s.logger, "getting author", err)
	}

	books, err := s.books.ListBooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, storeError(s.logger, "listing books by author", err)
	}
	return books, nil
}

func (s *BookService) Get(ctx context.Context, id int64) (*model.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "getting book", err)
	}
	return book, nil
}

func (s *BookService) Create(ctx context.Context, in model.NewBook) (*model.Book, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	released, err := model.ParseDate(*in.ReleaseDate)
	if err != nil {
		return nil, apperror.ValidationFailed("release_date", err.Error())
	}

	if err := s.checkAuthor(ctx, *in.AuthorID); err != nil {
		return nil, err
	}

	book := &model.Book{
		Title:       in.Title,
		Description: in.Description,
		ReleaseDate: released,
		AuthorID:    *in.AuthorID,
	}
	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, storeError(s.logger, "creating book", err)
	}

	s.logger.Info("book created", slog.Int64("id", book.ID), slog.Int64("author_id", book.AuthorID))
	return book, nil
}

// Update applies a partial update. Same flow as AuthorService.Update, plus
// the author_id reference check when author_id is supplied.
func (s *BookService) Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "getting book", err)
	}

	if err := patch.Validate(); err != nil {
		return nil, validationError(err)
	}
	if patch.Empty() {
		return book, nil
	}

	if patch.Title.Set {
		book.Title = patch.Title.Value
	}
	if patch.Description.Set {
		book.Description = patch.Description.Ptr()
	}
	if patch.ReleaseDate.Set {
		released, err := model.ParseDate(patch.ReleaseDate.Value)
		if err != nil {
			return nil, apperror.ValidationFailed("release_date", err.Error())
		}
		book.ReleaseDate = released
	}
	if patch.AuthorID.Set {
		if err := s.checkAuthor(ctx, patch.AuthorID.Value); err != nil {
			return nil, err
		}
		book.AuthorID = patch.AuthorID.Value
	}

	if err := s.books.UpdateBook(ctx, book); err != nil {
		return nil, storeError(s.logger, "updating book", err)
	}

	s.logger.Info("book updated", slog.Int64("id", id))
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if _, err := s.books.GetBook(ctx, id); err != nil {
		return storeError(s.logger, "getting book", err)
	}

	if err := s.books.DeleteBook(ctx, id); err != nil {
		return storeError(s.logger, "deleting book", err)
	}

	s.logger.Info("book deleted", slog.Int64("id", id))
	return nil
}

// checkAuthor turns a dangling author_id into a validation error (400),
// not a 404: the book is the resource being addressed.
func (s *BookService) checkAuthor(ctx context.Context, authorID int64) error {
	_, err := s.authors.GetAuthor(ctx, authorID)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed("author_id", "author does not exist")
	}
	return storeError(s.logger, "checking author", err)
}
