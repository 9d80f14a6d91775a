// Package server wires handlers into chi routers and runs them with
// graceful shutdown. Two servers exist: the API and the bundled runner that
// implements the custom sandbox protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/executor"
	"github.com/sakif/codelab/internal/handler"
	"github.com/sakif/codelab/internal/middleware"
)

type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// APIDeps are the services behind the API routes.
type APIDeps struct {
	Executions  handler.ExecutionService
	Submissions handler.SubmissionService
	Exercises   handler.ExerciseService
	Tokens      *auth.TokenService
	// Ping reports storage health for /healthz.
	Ping func() error
}

type Server struct {
	name   string
	router *chi.Mux
	config Config
	logger *slog.Logger
}

func newServer(name string, cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		name:   name,
		router: chi.NewRouter(),
		config: cfg,
		logger: logger.With(slog.String("server", name)),
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	return s
}

// NewAPI builds the public API. Everything under /api needs a token.
func NewAPI(cfg Config, deps APIDeps, logger *slog.Logger) *Server {
	s := newServer("api", cfg, logger)

	if len(cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Get("/healthz", healthHandler(deps.Ping))

	executions := handler.NewExecutionHandler(deps.Executions, s.logger)
	submissions := handler.NewSubmissionHandler(deps.Submissions, s.logger)
	exercises := handler.NewExerciseHandler(deps.Exercises)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Tokens))

		r.Route("/sandbox", func(r chi.Router) {
			r.Post("/execution-requests", executions.HandleCreate)
			r.Get("/execution-requests/{id}", executions.HandleGetRequest)
			r.Get("/execution-results/{requestID}", executions.HandleGetResult)
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", exercises.HandleList)
			r.Get("/{id}", exercises.HandleGet)
			r.Post("/{id}/submissions", submissions.HandleCreate)
			r.Get("/{id}/submissions", submissions.HandleList)
		})
	})

	return s
}

// NewRunner builds the custom sandbox service.
func NewRunner(cfg Config, exec executor.Executor, logger *slog.Logger) *Server {
	s := newServer("runner", cfg, logger)

	s.router.Get("/healthz", healthHandler(nil))
	s.router.Post("/execute", handler.NewRunnerHandler(exec, s.logger).HandleExecute)

	return s
}

func healthHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve listens on the configured port until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server error: %w", s.name, err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s graceful shutdown failed: %w", s.name, err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
