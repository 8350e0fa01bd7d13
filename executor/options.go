package executor

import (
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single evaluation unless overridden.
const DefaultTimeout = 30 * time.Second

// Option configures a single Run.
type Option func(*runConfig)

type runConfig struct {
	timeout time.Duration
}

func defaultRunConfig() runConfig {
	return runConfig{
		timeout: DefaultTimeout,
	}
}

// WithTimeout sets the maximum execution time. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// SessionOption configures a Session at creation time.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	timeout time.Duration
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		timeout: DefaultTimeout,
	}
}

// WithSessionTimeout sets the maximum time of each Run in the session.
func WithSessionTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	languages []Language
	logger    *slog.Logger
}

// WithLanguages registers languages at creation time.
func WithLanguages(langs ...Language) ExecutorOption {
	return func(c *executorConfig) {
		c.languages = append(c.languages, langs...)
	}
}

// WithLogger sets the logger evaluations are reported to.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(c *executorConfig) {
		c.logger = logger
	}
}
