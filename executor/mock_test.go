package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// mockLanguage implements Language for testing executor logic
// without a real interpreter. It echoes code and remembers prior runs.
type mockLanguage struct {
	name    string
	started atomic.Int32
	closed  atomic.Int32
}

func newMockLanguage() *mockLanguage {
	return &mockLanguage{name: "mock"}
}

func (m *mockLanguage) Name() string {
	return m.name
}

func (m *mockLanguage) NewSession() (LanguageSession, error) {
	m.started.Add(1)
	return &mockSession{lang: m}, nil
}

type mockSession struct {
	lang    *mockLanguage
	history []string
}

func (s *mockSession) Eval(ctx context.Context, code string, stdout io.Writer) error {
	switch {
	case code == "history":
		fmt.Fprint(stdout, strings.Join(s.history, ","))
	case code == "block":
		<-ctx.Done()
		return ctx.Err()
	case strings.HasPrefix(code, "fail:"):
		fmt.Fprint(stdout, "partial")
		return errors.New(strings.TrimPrefix(code, "fail:"))
	default:
		fmt.Fprint(stdout, code)
	}
	s.history = append(s.history, code)
	return nil
}

func (s *mockSession) Close() error {
	s.lang.closed.Add(1)
	return nil
}

// closingLanguage records Close calls from Executor.Close.
type closingLanguage struct {
	mockLanguage
	released bool
}

func (c *closingLanguage) Close() error {
	c.released = true
	return nil
}
