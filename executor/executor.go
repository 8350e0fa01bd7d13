package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrClosed          = errors.New("executor closed")
)

// Result holds the output and metadata from code execution.
type Result struct {
	Output   string
	Duration time.Duration
	Error    error
}

// Executor holds the registered languages.
type Executor struct {
	languages map[string]Language
	logger    *slog.Logger
	mu        sync.RWMutex
	closed    bool
}

// New creates an Executor.
func New(opts ...ExecutorOption) (*Executor, error) {
	var cfg executorConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Executor{
		languages: make(map[string]Language),
		logger:    logger,
	}
	for _, lang := range cfg.languages {
		if err := e.Register(lang); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds lang under its name.
func (e *Executor) Register(lang Language) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	name := lang.Name()
	if _, ok := e.languages[name]; ok {
		return fmt.Errorf("language %q already registered", name)
	}
	e.languages[name] = lang
	return nil
}

// Language looks up a registered language by name.
func (e *Executor) Language(name string) (Language, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lang, ok := e.languages[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownLanguage, name)
	}
	return lang, nil
}

// Languages returns the registered language names in sorted order.
func (e *Executor) Languages() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.languages))
	for name := range e.languages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes code in a fresh interpreter of lang.
func (e *Executor) Run(ctx context.Context, lang Language, code string, opts ...Option) Result {
	start := time.Now()

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if e.isClosed() {
		return Result{Error: ErrClosed, Duration: time.Since(start)}
	}

	ls, err := lang.NewSession()
	if err != nil {
		return Result{Error: fmt.Errorf("start %s: %w", lang.Name(), err), Duration: time.Since(start)}
	}
	defer ls.Close()

	result := evaluate(ctx, ls, code, cfg.timeout)
	result.Duration = time.Since(start)
	e.logger.Debug("evaluated", "language", lang.Name(), "duration", result.Duration, "error", result.Error)
	return result
}

// NewSession starts a persistent interpreter of lang.
func (e *Executor) NewSession(lang Language, opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if e.isClosed() {
		return nil, ErrClosed
	}

	ls, err := lang.NewSession()
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", lang.Name(), err)
	}

	return &Session{
		lang:    lang,
		ls:      ls,
		timeout: cfg.timeout,
		logger:  e.logger,
	}, nil
}

func (e *Executor) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// Close releases languages that hold resources, such as compiled modules.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	for _, lang := range e.languages {
		if c, ok := lang.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Session is a persistent interpreter. Runs are serialised.
type Session struct {
	lang    Language
	ls      LanguageSession
	timeout time.Duration
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// Language returns the language the session evaluates.
func (s *Session) Language() Language {
	return s.lang
}

// Run evaluates code with the state left by earlier runs.
func (s *Session) Run(ctx context.Context, code string) Result {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{Error: fmt.Errorf("session closed"), Duration: time.Since(start)}
	}

	result := evaluate(ctx, s.ls, code, s.timeout)
	result.Duration = time.Since(start)
	s.logger.Debug("evaluated", "language", s.lang.Name(), "session", true, "duration", result.Duration, "error", result.Error)
	return result
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.ls.Close()
}

func evaluate(ctx context.Context, ls LanguageSession, code string, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	err := ls.Eval(ctx, code, &stdout)

	result := Result{Output: stdout.String()}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("timeout after %v", timeout)
		} else {
			result.Error = fmt.Errorf("execution failed: %w", err)
		}
	}
	return result
}
