// Package evalbridge submits code snippets to a server's /eval endpoint and
// renders each result into an output container.
package evalbridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/caffeineduck/evalterm/fetch"
	"github.com/google/go-querystring/query"
	"golang.org/x/net/html"
)

// EvalPath is the server resource code is submitted to.
const EvalPath = "/eval"

// SendFailedMessage is alerted when a request cannot be sent.
const SendFailedMessage = "Request send failed."

// Key identifies the key that triggered a KeyPress.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// KeyEnterCode is the key code the browser reports for Enter.
const KeyEnterCode = 13

// KeyFromCode maps a raw key code to a Key.
func KeyFromCode(code int) Key {
	if code == KeyEnterCode {
		return KeyEnter
	}
	return KeyOther
}

// Output is the container results are written into. Each call replaces the
// previous content.
type Output interface {
	SetHTML(fragment string)
}

// Alerter reports failures the user has to acknowledge.
type Alerter interface {
	Alert(msg string)
}

type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string
	Client  *fetch.Client
	Output  Output
	Alerter Alerter
	Logger  *slog.Logger
}

// Bridge wires key presses on a code input to /eval requests.
type Bridge struct {
	baseURL string
	client  *fetch.Client
	output  Output
	alerter Alerter
	logger  *slog.Logger
}

func New(cfg Config) *Bridge {
	client := cfg.Client
	if client == nil {
		client = fetch.NewClient(fetch.Config{Logger: cfg.Logger})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		output:  cfg.Output,
		alerter: cfg.Alerter,
		logger:  logger,
	}
}

type evalQuery struct {
	Code string `url:"code"`
}

// EncodeQuery percent-encodes code as the /eval query string. Spaces become
// %20 and '+' becomes %2B, as encodeURIComponent does.
func EncodeQuery(code string) (string, error) {
	values, err := query.Values(evalQuery{Code: code})
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	// A literal '+' is already %2B here, so any remaining '+' is a space.
	return strings.ReplaceAll(values.Encode(), "+", "%20"), nil
}

// RequestURL returns the URL code is submitted to.
func (b *Bridge) RequestURL(code string) (string, error) {
	q, err := EncodeQuery(code)
	if err != nil {
		return "", err
	}
	return b.baseURL + EvalPath + "?" + q, nil
}

// KeyPress handles a key press over the code input holding value. It
// reports whether a request was issued: only Enter over a non-empty value
// submits.
func (b *Bridge) KeyPress(ctx context.Context, key Key, value string) bool {
	if key != KeyEnter || len(value) == 0 {
		return false
	}
	return b.Submit(ctx, value)
}

// Submit sends code to the eval endpoint. Completion is handled
// asynchronously; Wait blocks until it has been rendered.
func (b *Bridge) Submit(ctx context.Context, code string) bool {
	target, err := b.RequestURL(code)
	if err != nil {
		b.sendFailed(err)
		return false
	}

	req := &fetch.Request{
		URL:    target,
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"text/html"}},
	}
	req.OnReadyStateChange = func(state fetch.ReadyState, resp *fetch.Response) {
		b.logger.Debug("eval progress", "state", state)
		b.HandleReadyStateChange(code, state, resp)
	}

	if err := b.client.Send(ctx, req); err != nil {
		b.sendFailed(err)
		return false
	}
	b.logger.Debug("eval submitted", "url", target)
	return true
}

// Wait blocks until all submitted requests have been rendered.
func (b *Bridge) Wait() {
	b.client.Wait()
}

// HandleReadyStateChange renders resp for code once state is Done and
// reports whether the output was updated. Earlier states have no effect.
func (b *Bridge) HandleReadyStateChange(code string, state fetch.ReadyState, resp *fetch.Response) bool {
	if state != fetch.Done || resp == nil || b.output == nil {
		return false
	}
	b.output.SetHTML(Render(code, resp.ResponseText))
	return true
}

func (b *Bridge) sendFailed(err error) {
	b.logger.Warn("eval request not sent", "error", err)
	if b.alerter != nil {
		b.alerter.Alert(SendFailedMessage)
	}
}

// Render formats an eval result as an HTML fragment. Both code and result
// are escaped.
func Render(code, result string) string {
	return "<p>Result of " + html.EscapeString(code) + ":&nbsp;&nbsp;" + html.EscapeString(result) + "</p>"
}

// Container is an Output that keeps the last fragment written to it.
type Container struct {
	mu       sync.Mutex
	fragment string
	onChange func(string)
}

// NewContainer returns a Container that calls onChange, if non-nil, after
// every update.
func NewContainer(onChange func(string)) *Container {
	return &Container{onChange: onChange}
}

func (c *Container) SetHTML(fragment string) {
	c.mu.Lock()
	c.fragment = fragment
	onChange := c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange(fragment)
	}
}

func (c *Container) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fragment
}
