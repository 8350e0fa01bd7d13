// Package starlark evaluates Python-like Starlark code.
package starlark

import (
	"context"
	"fmt"
	"io"

	"github.com/caffeineduck/evalterm/executor"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const filename = "<eval>"

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Starlark implements the executor.Language interface.
type Starlark struct{}

func New() *Starlark {
	return &Starlark{}
}

func (s *Starlark) Name() string {
	return "starlark"
}

func (s *Starlark) NewSession() (executor.LanguageSession, error) {
	return &session{globals: starlark.StringDict{}}, nil
}

// session keeps module globals between evaluations. An expression is
// evaluated and its value printed; anything else runs as a REPL chunk that
// binds into the same globals, so values stay mutable across runs.
type session struct {
	globals starlark.StringDict
}

func (s *session) Eval(ctx context.Context, code string, stdout io.Writer) error {
	thread := &starlark.Thread{
		Name:  "eval",
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(stdout, msg) },
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	defer stop()

	if expr, err := fileOptions.ParseExpr(filename, code, 0); err == nil {
		v, err := starlark.EvalExprOptions(fileOptions, thread, expr, s.globals)
		if err != nil {
			return err
		}
		if v != starlark.None {
			fmt.Fprint(stdout, v.String())
		}
		return nil
	}

	f, err := fileOptions.Parse(filename, code, 0)
	if err != nil {
		return err
	}
	return starlark.ExecREPLChunk(f, thread, s.globals)
}

func (s *session) Close() error {
	return nil
}
