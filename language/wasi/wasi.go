// Package wasi runs interpreters compiled to WebAssembly with WASI, such as
// a CPython or QuickJS build, on the wazero runtime.
//
// Each evaluation instantiates a fresh module, so a session does not keep
// interpreter state between runs.
package wasi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caffeineduck/evalterm/executor"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// CodePlaceholder in Config.Args is replaced by the code being evaluated.
const CodePlaceholder = "{code}"

// Config describes a WASI interpreter module.
type Config struct {
	// Name the language is registered under.
	Name string
	// ModulePath is the .wasm file to load. Ignored when Module is set.
	ModulePath string
	Module     []byte
	// Args is the argv passed to the module. Defaults to
	// [Name, "-c", CodePlaceholder].
	Args []string
	// MemoryLimitPages caps linear memory in 64KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	// CacheDir enables the on-disk compilation cache.
	CacheDir string
}

// Language compiles its module once on first use and instantiates it per
// evaluation.
type Language struct {
	cfg Config

	mu       sync.Mutex
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled wazero.CompiledModule
	closed   bool
}

// New returns a Language for cfg. The module is not read until the first
// session is started.
func New(cfg Config) (*Language, error) {
	if cfg.Name == "" {
		return nil, errors.New("wasi: name required")
	}
	if cfg.ModulePath == "" && len(cfg.Module) == 0 {
		return nil, errors.New("wasi: module required")
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{cfg.Name, "-c", CodePlaceholder}
	}
	return &Language{cfg: cfg}, nil
}

func (l *Language) Name() string {
	return l.cfg.Name
}

func (l *Language) NewSession() (executor.LanguageSession, error) {
	compiled, err := l.getCompiled(context.Background())
	if err != nil {
		return nil, err
	}
	return &session{lang: l, compiled: compiled}, nil
}

// getCompiled returns the compiled module, compiling on first call.
func (l *Language) getCompiled(ctx context.Context) (wazero.CompiledModule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, executor.ErrClosed
	}
	if l.compiled != nil {
		return l.compiled, nil
	}

	wasm := l.cfg.Module
	if len(wasm) == 0 {
		var err error
		wasm, err = os.ReadFile(l.cfg.ModulePath)
		if err != nil {
			return nil, fmt.Errorf("read module: %w", err)
		}
	}

	if l.runtime == nil {
		if err := l.initRuntime(ctx); err != nil {
			return nil, err
		}
	}

	compiled, err := l.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", l.cfg.Name, err)
	}
	l.compiled = compiled
	return compiled, nil
}

func (l *Language) initRuntime(ctx context.Context) error {
	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	if l.cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(l.cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("create disk cache: %w", err)
		}
		l.cache = cache
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if l.cfg.MemoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(l.cfg.MemoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	l.runtime = rt
	return nil
}

func (l *Language) args(code string) []string {
	args := make([]string, len(l.cfg.Args))
	for i, a := range l.cfg.Args {
		args[i] = strings.ReplaceAll(a, CodePlaceholder, code)
	}
	return args
}

// Close releases the runtime and compilation cache.
func (l *Language) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	ctx := context.Background()
	var errs []error
	if l.runtime != nil {
		errs = append(errs, l.runtime.Close(ctx))
	}
	if l.cache != nil {
		errs = append(errs, l.cache.Close(ctx))
	}
	return errors.Join(errs...)
}

type session struct {
	lang     *Language
	compiled wazero.CompiledModule
}

func (s *session) Eval(ctx context.Context, code string, stdout io.Writer) error {
	cfg := wazero.NewModuleConfig().
		WithStdout(stdout).
		WithStderr(stdout).
		WithArgs(s.lang.args(code)...).
		WithName("")

	mod, err := s.lang.runtime.InstantiateModule(ctx, s.compiled, cfg)
	if mod != nil {
		mod.Close(ctx)
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
		return nil
	}
	return err
}

func (s *session) Close() error {
	return nil
}

// DefaultCacheDir returns the per-user compilation cache directory.
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "evalterm")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "evalterm")
	}
	return filepath.Join(os.TempDir(), "evalterm-cache")
}
