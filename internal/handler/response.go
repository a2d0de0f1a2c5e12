package handler

// RESPONSE HELPERS:
// Every response leaves through one of these functions, so the envelope
// shape lives in exactly one place.
//
// ENVELOPES:
//
//	success: {"success": true, "authors": [ ... ]}
//	error:   {"success": false, "error": 404, "message": "Resource Not Found"}
//
// The resource key matches the route ("authors" or "books") and the value is
// always an array, even for a single record or a deleted id.
//
// ERROR MAPPING:
// Services return *apperror.AppError values. writeError is the only place
// they become HTTP status codes. The message sent to the client is the
// generic text for the status, never err.Error(): a persistence error can
// carry SQL or file paths.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookstore-api/internal/apperror"
	"github.com/sakif/bookstore-api/internal/auth"
)

// maxBodyBytes caps request bodies. Nothing this API accepts comes close.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// errorMessages holds the client-facing text for each status we send.
var errorMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Resource Not Found",
	http.StatusMethodNotAllowed:    "Method Not Allowed",
	http.StatusUnprocessableEntity: "Unprocessable",
	http.StatusInternalServerError: "Internal Server Error",
	http.StatusServiceUnavailable:  "Service Unavailable",
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status go out on the first Write, so both are set before
// encoding the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess sends {"success": true, resource: items} with status 200.
func writeSuccess(w http.ResponseWriter, resource string, items any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		resource:  items,
	})
}

// writeStatus sends the error envelope for status.
func writeStatus(w http.ResponseWriter, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: msg,
	})
}

// StatusFor maps an error to its HTTP status.
//
//	ErrValidation                 → 400
//	ErrUnauthorized               → 401
//	ErrForbidden                  → 403
//	ErrNotFound                   → 404
//	ErrConflict, ErrPersistence   → 422
//	anything else                 → 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict), errors.Is(err, apperror.ErrPersistence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorWriter returns a function that maps err to a status and sends the
// error envelope, logging through logger.
//
// It has the auth.ErrorWriter signature so permission failures and
// recovered panics render exactly like handler errors.
func ErrorWriter(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(logger, w, r, err)
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	attrs := []slog.Attr{
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		attrs = append(attrs, slog.String("field", appErr.Field))
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		attrs = append(attrs, slog.String("subject", claims.Subject))
	}

	level := slog.LevelDebug
	msg := "request rejected"
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		msg = "request failed"
	}
	logger.LogAttrs(r.Context(), level, msg, attrs...)

	writeStatus(w, status)
}

// NotFound answers unmatched routes with the 404 envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusNotFound)
}

// MethodNotAllowed answers a known path with an unmapped method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusMethodNotAllowed)
}

// parseID reads a positive integer URL parameter. Anything else cannot name
// a stored record, so it is reported as not found rather than bad input.
func parseID(r *http.Request, param, resource string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// decodeJSON reads the request body into dst. Unknown fields are ignored;
// an empty, malformed or wrongly typed body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is empty")
		}
		return apperror.ValidationFailed("body", "malformed JSON: "+err.Error())
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must be a single JSON object")
	}
	return nil
}
