// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete store, so tests
// pass in-memory fakes and the server can pick SQLite or Postgres at start.
//
// ERROR CONTRACT:
// Every error a service returns is an *apperror.AppError (possibly wrapped):
//   - ErrValidation   bad input, including an author_id that does not exist
//   - ErrNotFound     the target id does not resolve
//   - ErrConflict     the write would break the author/book relationship
//   - ErrPersistence  the store failed on an otherwise valid request
//
// Unclassified store errors are logged here with their cause and converted
// to ErrPersistence, so the handler never sees a raw driver error.
package service

import (
	"errors"
	"log/slog"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/validate"
)

// storeError passes classified errors through and turns anything else into
// a Persistence error, logging the cause.
func storeError(logger *slog.Logger, op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error("store operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperror.Persistence(op, err)
}

// validationError converts an ozzo-validation result to a single-field
// apperror.ValidationFailed.
func validationError(err error) error {
	field, msg := validate.FirstError(err)
	return apperror.ValidationFailed(field, msg)
}
