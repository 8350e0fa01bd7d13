package terminal

import (
	"log/slog"
	"sync"

	"github.com/caffeineduck/evalterm/fetch"
)

type HostConfig struct {
	Display Display
	Client  *fetch.Client
	Logger  *slog.Logger
	// OnExit runs each time a session closes.
	OnExit func()
}

// Host owns at most one terminal session and creates it on demand.
type Host struct {
	cfg     HostConfig
	mu      sync.Mutex
	session *Session
}

func NewHost(cfg HostConfig) *Host {
	if cfg.Client == nil {
		cfg.Client = fetch.NewClient(fetch.Config{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Host{cfg: cfg}
}

// Open returns the open session, creating a new one if there is none or the
// previous one has closed. A new session starts focused and greets with the
// banner.
func (h *Host) Open() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != nil && h.session.IsOpen() {
		return h.session
	}

	h.session = newSession(h.cfg)
	h.cfg.Logger.Debug("terminal opened")

	d := h.cfg.Display
	d.Write(BannerText())
	d.NewLine()
	d.Prompt()
	return h.session
}

// Session returns the current session, open or closed, or nil before the
// first Open.
func (h *Host) Session() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}
