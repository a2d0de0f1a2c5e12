package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/model"
	"github.com/sakif/bookstore-api/internal/repository"
)

// AuthorService handles business logic for authors.
type AuthorService struct {
	repo   repository.AuthorRepository
	logger *slog.Logger
}

func NewAuthorService(repo repository.AuthorRepository, logger *slog.Logger) *AuthorService {
	return &AuthorService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AuthorService) List(ctx context.Context) ([]model.Author, error) {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, storeError(s.logger, "listing authors", err)
	}
	return authors, nil
}

func (s *AuthorService) Get(ctx context.Context, id int64) (*model.Author, error) {
	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "getting author", err)
	}
	return author, nil
}

// Create validates and saves a new author.
//
// All checks run before the store is touched, so a rejected request never
// leaves a partial row behind.
func (s *AuthorService) Create(ctx context.Context, in model.NewAuthor) (*model.Author, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	dob, err := model.ParseDate(*in.DOB)
	if err != nil {
		return nil, apperror.ValidationFailed("dob", err.Error())
	}

	author := &model.Author{
		Name:     in.Name,
		FullName: in.FullName,
		DOB:      dob,
	}
	if err := s.repo.CreateAuthor(ctx, author); err != nil {
		return nil, storeError(s.logger, "creating author", err)
	}

	s.logger.Info("author created", slog.Int64("id", author.ID))
	return author, nil
}

// Update applies a partial update.
//
// FLOW:
//  1. Fetch the current author (404 if missing)
//  2. Validate the supplied fields
//  3. Merge only the supplied fields
//  4. Save, unless nothing was supplied
//
// A patch that names no known field is a no-op and returns the current state.
func (s *AuthorService) Update(ctx context.Context, id int64, patch model.AuthorPatch) (*model.Author, error) {
	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "getting author", err)
	}

	if err := patch.Validate(); err != nil {
		return nil, validationError(err)
	}
	if patch.Empty() {
		return author, nil
	}

	if patch.Name.Set {
		author.Name = patch.Name.Value
	}
	if patch.FullName.Set {
		author.FullName = patch.FullName.Value
	}
	if patch.DOB.Set {
		dob, err := model.ParseDate(patch.DOB.Value)
		if err != nil {
			return nil, apperror.ValidationFailed("dob", err.Error())
		}
		author.DOB = dob
	}

	if err := s.repo.UpdateAuthor(ctx, author); err != nil {
		return nil, storeError(s.logger, "updating author", err)
	}

	s.logger.Info("author updated", slog.Int64("id", id))
	return author, nil
}

// Delete removes an author that owns no books.
//
// Deleting an author with books is refused with a Conflict instead of
// cascading or leaving orphans. The foreign key gives the same answer if a
// book is added between the count and the delete.
func (s *AuthorService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetAuthor(ctx, id); err != nil {
		return storeError(s.logger, "getting author", err)
	}

	n, err := s.repo.CountBooksByAuthor(ctx, id)
	if err != nil {
		return storeError(s.logger, "counting author books", err)
	}
	if n > 0 {
		return apperror.Conflict("author", strconv.FormatInt(id, 10), "author still has books")
	}

	if err := s.repo.DeleteAuthor(ctx, id); err != nil {
		return storeError(s.logger, "deleting author", err)
	}

	s.logger.Info("author deleted", slog.Int64("id", id))
	return nil
}
