package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caffeineduck/evalterm/executor"
)

//go:embed static/index.html
var indexHTML []byte

// Server answers /eval requests from the eval bridge and serves the page
// that hosts it.
type Server struct {
	cfg    Config
	exec   *executor.Executor
	router chi.Router
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*executor.Session
	closed   bool
}

// New creates a Server. Interpreter sessions are started lazily, one per
// language, and persist until Close.
func New(cfg Config) (*Server, error) {
	if cfg.Executor == nil {
		return nil, errors.New("executor required")
	}
	if cfg.DefaultLanguage == "" {
		return nil, errors.New("default language required")
	}
	if _, err := cfg.Executor.Language(cfg.DefaultLanguage); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = executor.DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		cfg:      cfg,
		exec:     cfg.Executor,
		router:   chi.NewRouter(),
		logger:   logger,
		sessions: make(map[string]*executor.Session),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/eval", s.handleEval)
	r.Post("/eval", s.handleEval)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

// session returns the persistent session for lang, starting it on first use.
func (s *Server) session(lang executor.Language) (*executor.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, executor.ErrClosed
	}
	if sess, ok := s.sessions[lang.Name()]; ok {
		return sess, nil
	}

	sess, err := s.exec.NewSession(lang, executor.WithSessionTimeout(s.cfg.Timeout))
	if err != nil {
		return nil, err
	}
	s.sessions[lang.Name()] = sess
	s.logger.Info("session started", "language", lang.Name())
	return sess, nil
}

// Close ends all interpreter sessions. The executor is owned by the caller.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for name, sess := range s.sessions {
		if err := sess.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s session: %w", name, err))
		}
		delete(s.sessions, name)
	}
	return errors.Join(errs...)
}

// Shutdown stops srv gracefully and then closes s.
func (s *Server) Shutdown(ctx context.Context, srv *http.Server) error {
	err := srv.Shutdown(ctx)
	return errors.Join(err, s.Close())
}
