// Package golang evaluates Go source with the yaegi interpreter.
//
// The interpreter exposes the full standard library, so code it runs has the
// same access to the host as the server process.
package golang

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/caffeineduck/evalterm/executor"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

type Go struct{}

func New() *Go {
	return &Go{}
}

func (g *Go) Name() string {
	return "go"
}

func (g *Go) NewSession() (executor.LanguageSession, error) {
	out := &switchWriter{w: io.Discard}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	return &session{interp: i, out: out}, nil
}

type session struct {
	interp *interp.Interpreter
	out    *switchWriter
}

func (s *session) Eval(ctx context.Context, code string, stdout io.Writer) error {
	s.out.set(stdout)
	defer s.out.set(io.Discard)

	v, err := s.interp.EvalWithContext(ctx, code)
	if err != nil {
		return err
	}
	if printable(v) {
		fmt.Fprint(stdout, v.Interface())
	}
	return nil
}

func (s *session) Close() error {
	return nil
}

func printable(v reflect.Value) bool {
	if !v.IsValid() || !v.CanInterface() {
		return false
	}
	switch v.Kind() {
	case reflect.Func:
		return false
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		return !v.IsNil()
	}
	return true
}

// switchWriter forwards to whichever writer the current evaluation uses.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
