package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookstore-api/internal/model"
)

// AuthorService is what AuthorHandler needs from the service layer.
// *service.AuthorService satisfies it.
type AuthorService interface {
	List(ctx context.Context) ([]model.Author, error)
	Get(ctx context.Context, id int64) (*model.Author, error)
	Create(ctx context.Context, in model.NewAuthor) (*model.Author, error)
	Update(ctx context.Context, id int64, patch model.AuthorPatch) (*model.Author, error)
	Delete(ctx context.Context, id int64) error
}

// AuthorHandler serves the /authors routes.
//
// Each method is a thin adapter: parse the path and body, call the service,
// project the result and wrap it in the envelope. Permission checks happen
// before these run (see server.setupRoutes).
type AuthorHandler struct {
	service AuthorService
	logger  *slog.Logger
}

func NewAuthorHandler(svc AuthorService, logger *slog.Logger) *AuthorHandler {
	return &AuthorHandler{service: svc, logger: logger}
}

// HandleList returns every author in short form.
//
// HTTP: GET /authors
func (h *AuthorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.List(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	out := make([]model.AuthorShort, 0, len(authors))
	for _, a := range authors {
		out = append(out, a.Short())
	}
	writeSuccess(w, "authors", out)
}

// HandleGet returns one author in long form.
//
// HTTP: GET /authors/{id}
func (h *AuthorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "author")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	author, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "authors", []model.AuthorLong{author.Long()})
}

// HandleCreate creates an author.
//
// HTTP: POST /authors
// REQUEST BODY: {"name": "...", "full_name": "...", "dob": "YYYY/MM/DD"}
func (h *AuthorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewAuthor
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	author, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "authors", []model.AuthorLong{author.Long()})
}

// HandleUpdate applies a partial update. Fields missing from the body keep
// their stored value.
//
// HTTP: PATCH /authors/{id}
func (h *AuthorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "author")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	var patch model.AuthorPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	author, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "authors", []model.AuthorLong{author.Long()})
}

// HandleDelete removes an author and echoes the deleted id.
//
// HTTP: DELETE /authors/{id}
func (h *AuthorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "author")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeSuccess(w, "authors", []int64{id})
}
