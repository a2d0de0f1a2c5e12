// Package middleware contains HTTP middleware functions.
//
// WHAT IS MIDDLEWARE?
// Middleware is a function that wraps an HTTP handler to add cross-cutting behaviour
// (logging, CORS, panic recovery) without modifying the handler itself.
//
// The pattern is:
//
//	func MyMiddleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // Do something BEFORE the handler runs
//	        next.ServeHTTP(w, r)  // Call the actual handler
//	        // Do something AFTER the handler runs
//	    })
//	}
//
// Permission checks are middleware too, but they live in internal/auth next
// to the token code they call.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger returns middleware that writes one structured log line per request.
//
// CAPTURING THE STATUS CODE:
// http.ResponseWriter doesn't expose the status after WriteHeader. Wrapping it
// by hand hides optional interfaces (http.Flusher, io.ReaderFrom, ...), so
// httpsnoop.CaptureMetrics does the wrapping and hands back code, bytes and
// duration once the handler returns.
//
// Each log line includes: method, path, status code, duration, bytes written
// and the request id set by chi's RequestID middleware.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			level := slog.LevelInfo
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Duration("duration", m.Duration),
				slog.Int64("bytes", m.Written),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
