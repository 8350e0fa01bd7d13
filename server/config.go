package server

import (
	"log/slog"
	"time"

	"github.com/caffeineduck/evalterm/executor"
)

// Config holds the eval server settings.
type Config struct {
	// Addr is the listen address, e.g. "localhost:8000".
	Addr string
	// Executor evaluates submitted code. Required.
	Executor *executor.Executor
	// DefaultLanguage is used when a request names none.
	DefaultLanguage string
	// Timeout bounds each evaluation. Zero uses executor.DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultAddr is the address the browser page expects the server on. It is
// loopback only; evaluated code runs with the server's privileges.
const DefaultAddr = "localhost:8000"
