package terminal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/buildkite/shellwords"
	"github.com/caffeineduck/evalterm/fetch"
)

var (
	// ErrClosed is returned by Submit after the session has closed.
	ErrClosed = errors.New("terminal closed")
	// ErrLocked is returned by Submit while the session does not have focus.
	ErrLocked = errors.New("terminal locked")
)

// Banner is the greeting shown on open and by the help command.
var Banner = []string{
	"**** Go terminal to eval server ****",
	" ",
	"* type \"get [-e] url\" to fetch a resource.",
	"* type \"help\" to show this text.",
	"* type \"exit\" to quit.",
	" ",
}

func BannerText() string {
	return strings.Join(Banner, "\n")
}

// Session is one open terminal. It owns its line buffer and focus state.
type Session struct {
	display Display
	client  *fetch.Client
	logger  *slog.Logger
	onExit  func()

	mu         sync.Mutex
	lineBuffer string
	open       bool
	focused    bool
}

func newSession(cfg HostConfig) *Session {
	return &Session{
		display: cfg.Display,
		client:  cfg.Client,
		logger:  cfg.Logger,
		onExit:  cfg.OnExit,
		open:    true,
		focused: true,
	}
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Blur takes keyboard focus away from the session. Submitted lines are
// ignored until Focus is called.
func (s *Session) Blur() {
	s.mu.Lock()
	s.focused = false
	s.mu.Unlock()
}

func (s *Session) Focus() {
	s.mu.Lock()
	s.focused = true
	s.mu.Unlock()
}

func (s *Session) Focused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

// LineBuffer returns the last submitted line with leading whitespace removed.
func (s *Session) LineBuffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineBuffer
}

// Close closes the session and runs the exit handler. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	onExit := s.onExit
	s.mu.Unlock()

	s.logger.Debug("terminal closed")
	if onExit != nil {
		onExit()
	}
}

// Wait blocks until every request issued by get has been handled.
func (s *Session) Wait() {
	s.client.Wait()
}

// Submit handles one line of input.
func (s *Session) Submit(ctx context.Context, line string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.focused {
		s.mu.Unlock()
		return ErrLocked
	}
	s.lineBuffer = strings.TrimLeftFunc(line, unicode.IsSpace)
	buf := s.lineBuffer
	s.mu.Unlock()

	s.display.NewLine()
	s.dispatch(ctx, buf, splitArgs(buf))
	return nil
}

// splitArgs splits a line into words, honouring quotes where they balance.
func splitArgs(line string) []string {
	argv, err := shellwords.Split(line)
	if err != nil {
		return strings.Fields(line)
	}
	return argv
}
