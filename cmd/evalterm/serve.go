package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/evalterm/executor"
	"github.com/caffeineduck/evalterm/language/golang"
	"github.com/caffeineduck/evalterm/language/javascript"
	"github.com/caffeineduck/evalterm/language/starlark"
	"github.com/caffeineduck/evalterm/language/wasi"
	"github.com/caffeineduck/evalterm/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eval server",
	Long: `Start the HTTP server the eval bridge and terminal talk to.

Endpoints:
  GET       /                    Page with the code input and output area
  GET|POST  /eval?code=&lang=    Evaluate code, state persists per language
  GET       /health              Health check

Languages: starlark, javascript, and a WASI interpreter module given with
--wasm-module (for example a python.wasm build). --enable-go adds a Go
interpreter with the full standard library, os/exec included: only enable it
on a loopback address.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", server.DefaultAddr, "Address to listen on")
	serveCmd.Flags().StringP("lang", "l", "starlark", "Default language")
	serveCmd.Flags().Duration("timeout", executor.DefaultTimeout, "Execution timeout")
	serveCmd.Flags().Bool("enable-go", false, "Register the Go interpreter (unsandboxed)")
	serveCmd.Flags().String("wasm-module", "", "WASI interpreter module to register")
	serveCmd.Flags().String("wasm-name", "python", "Language name of the WASI module")
	serveCmd.Flags().StringSlice("wasm-args", nil, "WASI argv template, {code} is replaced (default: NAME -c {code})")
	serveCmd.Flags().Uint32("wasm-memory-pages", 0, "WASI memory limit in 64KiB pages (0: runtime default)")
	serveCmd.Flags().Bool("no-cache", false, "Disable WASI compilation cache")
	bindFlags(serveCmd, "serve")
	rootCmd.AddCommand(serveCmd)
}

// newExecutor registers the built-in languages and, when configured, the Go
// interpreter and the WASI module.
func newExecutor() (*executor.Executor, error) {
	langs := []executor.Language{starlark.New(), javascript.New()}
	if cfg.GetBool("serve.enable-go") {
		langs = append(langs, golang.New())
	}

	if path := cfg.GetString("serve.wasm-module"); path != "" {
		wcfg := wasi.Config{
			Name:             cfg.GetString("serve.wasm-name"),
			ModulePath:       path,
			Args:             cfg.GetStringSlice("serve.wasm-args"),
			MemoryLimitPages: cfg.GetUint32("serve.wasm-memory-pages"),
		}
		if !cfg.GetBool("serve.no-cache") {
			wcfg.CacheDir = wasi.DefaultCacheDir()
		}
		lang, err := wasi.New(wcfg)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return executor.New(executor.WithLanguages(langs...), executor.WithLogger(logger))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	exec, err := newExecutor()
	if err != nil {
		return err
	}
	defer exec.Close()

	s, err := server.New(server.Config{
		Addr:            cfg.GetString("serve.addr"),
		Executor:        exec,
		DefaultLanguage: cfg.GetString("serve.lang"),
		Timeout:         cfg.GetDuration("serve.timeout"),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "evalterm server listening on %s (languages: %v)\n", srv.Addr, exec.Languages())

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx, srv)
}
