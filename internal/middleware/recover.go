package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ErrorWriter renders an error response. handler.ErrorWriter builds one.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Recoverer turns a panic in a handler into a logged 500 response.
//
// Unlike chi's Recoverer, the response goes through onError, so the client
// gets the same JSON envelope as any other failure. http.ErrAbortHandler is
// re-panicked: net/http uses it to abort a response on purpose.
func Recoverer(logger *slog.Logger, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", chimiddleware.GetReqID(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)

				w.Header().Set("Connection", "close")
				onError(w, r, fmt.Errorf("panic: %v", rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
