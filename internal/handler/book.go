package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookstore-api/internal/model"
)

// BookService is what BookHandler needs from the service layer.
type BookService interface {
	List(ctx context.Context) ([]model.Book, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	Create(ctx context.Context, in model.NewBook) (*model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

// BookHandler serves the /books routes.
type BookHandler struct {
	service BookService
	logger  *slog.Logger
}

func NewBookHandler(svc BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{service: svc, logger: logger}
}

// HTTP: GET /books
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", shortBooks(books))
}

// HandleListByAuthor lists one author's books. An author with no books is
// an empty array, an unknown author is a 404.
//
// HTTP: GET /books/author/{authorId}
func (h *BookHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseID(r, "authorId", "author")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	books, err := h.service.ListByAuthor(r.Context(), authorID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", shortBooks(books))
}

// HTTP: GET /books/{id}
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "book")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", []model.BookLong{book.Long()})
}

// HandleCreate creates a book for an existing author.
//
// HTTP: POST /books
// REQUEST BODY: {"title": "...", "description": "...", "release_date": "YYYY/MM/DD", "author_id": 1}
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewBook
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	book, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", []model.BookLong{book.Long()})
}

// HandleUpdate applies a partial update. "description": null clears the
// description; the other fields cannot be nulled.
//
// HTTP: PATCH /books/{id}
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "book")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	var patch model.BookPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	book, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", []model.BookLong{book.Long()})
}

// HTTP: DELETE /books/{id}
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "book")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "books", []int64{id})
}

func shortBooks(books []model.Book) []model.BookShort {
	out := make([]model.BookShort, 0, len(books))
	for _, b := range books {
		out = append(out, b.Short())
	}
	return out
}
