// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects the store, services,
// handlers, middleware and routes. main.go only loads config and calls New.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → OpenStore (SQLite or Postgres)  → repository.Store
//	  → AuthorService / BookService     (take repository interfaces)
//	  → AuthorHandler / BookHandler     (take service interfaces)
//	  → chi routes, each behind auth.RequirePermission
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookstore-api/internal/auth"
	"github.com/sakif/bookstore-api/internal/config"
	"github.com/sakif/bookstore-api/internal/handler"
	"github.com/sakif/bookstore-api/internal/middleware"
	"github.com/sakif/bookstore-api/internal/repository"
	"github.com/sakif/bookstore-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it during graceful shutdown; if
// Start is never called, the caller must call Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// New opens the store, builds the token verifier and wires the routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.Config{
		Secret:       cfg.Auth.Secret,
		JWKSURL:      cfg.Auth.JWKSURL,
		Issuer:       cfg.Auth.Issuer,
		Audience:     cfg.Auth.Audience,
		Leeway:       cfg.Auth.Leeway,
		JWKSCacheTTL: cfg.Auth.JWKSCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	store, err := OpenStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                         → status banner (no auth)
//	GET    /healthz, /readyz         → health checks (no auth)
//	GET    /authors                  → get:authors
//	GET    /authors/{id}             → get:authors_detail
//	POST   /authors                  → post:authors
//	PATCH  /authors/{id}             → patch:authors
//	DELETE /authors/{id}             → delete:authors
//	GET    /books                    → get:books
//	GET    /books/author/{authorId}  → get:books_by_author
//	GET    /books/{id}               → get:books_detail
//	POST   /books                    → post:books
//	PATCH  /books/{id}               → patch:books
//	DELETE /books/{id}               → delete:books
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
//  1. CORS: answers preflight OPTIONS before anything else
//  2. RequestID: assigns a unique ID to each request (for tracing)
//  3. RealIP: extracts the client IP from proxy headers
//  4. Logger: logs each request with status and timing
//  5. Recoverer: turns panics into the 500 envelope (inside Logger, so the
//     500 is logged too)
func (s *Server) setupRoutes() {
	r := s.router
	errs := handler.ErrorWriter(s.logger)

	r.Use(middleware.CORS)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger, errs))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// DEPENDENCY CHAIN:
	//   s.store implements both repository interfaces
	//   services receive the interfaces
	//   handlers receive the services
	authorService := service.NewAuthorService(s.store, s.logger)
	bookService := service.NewBookService(s.store, s.store, s.logger)

	authorHandler := handler.NewAuthorHandler(authorService, s.logger)
	bookHandler := handler.NewBookHandler(bookService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	r.Get("/", healthHandler.HandleIndex)
	r.Get("/healthz", healthHandler.HandleLive)
	r.Get("/readyz", healthHandler.HandleReady)

	// need wraps a route in the permission guard for perm.
	need := func(perm string) func(http.Handler) http.Handler {
		return auth.RequirePermission(s.tokens, perm, errs)
	}

	r.Route("/authors", func(r chi.Router) {
		r.With(need(auth.PermGetAuthors)).Get("/", authorHandler.HandleList)
		r.With(need(auth.PermPostAuthors)).Post("/", authorHandler.HandleCreate)
		r.With(need(auth.PermGetAuthorsDetail)).Get("/{id}", authorHandler.HandleGet)
		r.With(need(auth.PermPatchAuthors)).Patch("/{id}", authorHandler.HandleUpdate)
		r.With(need(auth.PermDeleteAuthors)).Delete("/{id}", authorHandler.HandleDelete)
	})

	r.Route("/books", func(r chi.Router) {
		r.With(need(auth.PermGetBooks)).Get("/", bookHandler.HandleList)
		r.With(need(auth.PermPostBooks)).Post("/", bookHandler.HandleCreate)
		r.With(need(auth.PermGetBooksByAuthor)).Get("/author/{authorId}", bookHandler.HandleListByAuthor)
		r.With(need(auth.PermGetBooksDetail)).Get("/{id}", bookHandler.HandleGet)
		r.With(need(auth.PermPatchBooks)).Patch("/{id}", bookHandler.HandleUpdate)
		r.With(need(auth.PermDeleteBooks)).Delete("/{id}", bookHandler.HandleDelete)
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (ShutdownTimeout)
//  3. Close the store (flushes the SQLite WAL / drains the pgx pool)
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
