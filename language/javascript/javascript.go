package javascript

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/caffeineduck/evalterm/executor"
	"github.com/dop251/goja"
)

// JavaScript implements the executor.Language interface on the goja runtime.
type JavaScript struct{}

// New returns a JavaScript language adapter.
func New() *JavaScript {
	return &JavaScript{}
}

// Name returns "javascript".
func (j *JavaScript) Name() string {
	return "javascript"
}

// NewSession creates a runtime with console.log and print bound to the
// current evaluation's output.
func (j *JavaScript) NewSession() (executor.LanguageSession, error) {
	s := &session{vm: goja.New(), out: io.Discard}

	log := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		fmt.Fprintln(s.out, strings.Join(parts, " "))
		return goja.Undefined()
	}

	console := s.vm.NewObject()
	if err := console.Set("log", log); err != nil {
		return nil, fmt.Errorf("bind console: %w", err)
	}
	if err := s.vm.Set("console", console); err != nil {
		return nil, fmt.Errorf("bind console: %w", err)
	}
	if err := s.vm.Set("print", log); err != nil {
		return nil, fmt.Errorf("bind print: %w", err)
	}
	return s, nil
}

type session struct {
	vm  *goja.Runtime
	out io.Writer
}

func (s *session) Eval(ctx context.Context, code string, stdout io.Writer) error {
	s.out = stdout
	defer func() { s.out = io.Discard }()

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
		close(interrupted)
	})

	v, err := s.vm.RunString(code)
	// An interrupt that lands after RunString returns would otherwise abort
	// the next Eval in this session.
	if !stop() {
		<-interrupted
		s.vm.ClearInterrupt()
	}
	if err != nil {
		return err
	}
	if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		fmt.Fprint(stdout, v.String())
	}
	return nil
}

func (s *session) Close() error {
	s.vm.Interrupt("closed")
	return nil
}
