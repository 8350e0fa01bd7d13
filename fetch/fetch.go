package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxURLLength = 8192
	DefaultMaxBodySize  = 1 << 20 // 1MB
)

// ErrHostNotAllowed is returned by Send when the target host is outside the
// configured allowlist.
var ErrHostNotAllowed = errors.New("host not allowed")

// ReadyState tracks a request's progress toward completion.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "unsent"
	case Opened:
		return "opened"
	case HeadersReceived:
		return "headers_received"
	case Loading:
		return "loading"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("ReadyState(%d)", int(s))
	}
}

// Headers holds the response headers a callback usually cares about, plus
// any headers named in Request.CaptureHeaders.
type Headers struct {
	ContentType   string
	ContentLength int64
	Captured      map[string]string
}

// Response is handed to a request's callback exactly once.
type Response struct {
	Success      bool
	Status       int
	StatusText   string
	Errno        int
	Errstring    string
	Headers      Headers
	ResponseText string
}

// Request describes one asynchronous HTTP call.
type Request struct {
	URL            string
	Method         string
	Header         http.Header
	Body           string
	CaptureHeaders []string

	// Callback receives the response once the request is Done.
	Callback func(*Response)

	// OnReadyStateChange observes every state transition, Done included.
	// The response is nil until Done.
	OnReadyStateChange func(ReadyState, *Response)
}

type Config struct {
	// AllowedHosts restricts targets when non-empty. Subdomains of an entry match.
	AllowedHosts []string
	MaxBodySize  int64
	MaxURLLength int
	// Timeout of zero means requests never time out.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues fire-and-forget requests. It is safe for concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewClient(cfg Config) *Client {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.MaxURLLength == 0 {
		cfg.MaxURLLength = DefaultMaxURLLength
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Send validates and opens req, then performs it on its own goroutine. An
// error means nothing was sent and no callback will run.
func (c *Client) Send(ctx context.Context, req *Request) error {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return err
	}
	notify(req, Opened, nil)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		resp := c.perform(httpReq, req)
		notify(req, Done, resp)
		if req.Callback != nil {
			req.Callback(resp)
		}
	}()
	return nil
}

// Do performs req synchronously and returns its response. req.Callback is
// not invoked.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	notify(req, Opened, nil)
	resp := c.perform(httpReq, req)
	notify(req, Done, resp)
	return resp, nil
}

// Wait blocks until every request started with Send has completed.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	switch method {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}

	if req.URL == "" {
		return nil, fmt.Errorf("url required")
	}
	if len(req.URL) > c.cfg.MaxURLLength {
		return nil, fmt.Errorf("url exceeds max length")
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https")
	}

	host := parsed.Hostname()
	if !c.isHostAllowed(host) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}

	var body io.Reader
	if req.Body != "" {
		body = bytes.NewBufferString(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

func (c *Client) perform(httpReq *http.Request, req *Request) *Response {
	id := uuid.NewString()
	start := time.Now()
	log := c.logger.With("request_id", id, "method", httpReq.Method, "url", httpReq.URL.String())
	log.Debug("request sent")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		log.Debug("request failed", "error", err)
		return failure(err)
	}
	defer httpResp.Body.Close()
	notify(req, HeadersReceived, nil)

	notify(req, Loading, nil)
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.cfg.MaxBodySize))
	if err != nil {
		log.Debug("reading response failed", "error", err)
		return failure(fmt.Errorf("failed to read response: %w", err))
	}

	resp := &Response{
		Success:      httpResp.StatusCode >= 200 && httpResp.StatusCode < 300,
		Status:       httpResp.StatusCode,
		StatusText:   http.StatusText(httpResp.StatusCode),
		ResponseText: string(body),
		Headers: Headers{
			ContentType:   httpResp.Header.Get("Content-Type"),
			ContentLength: httpResp.ContentLength,
		},
	}
	if resp.Headers.ContentLength < 0 {
		resp.Headers.ContentLength = int64(len(body))
	}
	if len(req.CaptureHeaders) > 0 {
		resp.Headers.Captured = make(map[string]string, len(req.CaptureHeaders))
		for _, name := range req.CaptureHeaders {
			resp.Headers.Captured[name] = httpResp.Header.Get(name)
		}
	}

	log.Debug("request done", "status", resp.Status, "duration", time.Since(start))
	return resp
}

// failure describes a request that never produced an HTTP status.
func failure(err error) *Response {
	errno := 1
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		errno = int(sysErr)
	}
	return &Response{
		Errno:     errno,
		Errstring: err.Error(),
	}
}

func notify(req *Request, state ReadyState, resp *Response) {
	if req.OnReadyStateChange != nil {
		req.OnReadyStateChange(state, resp)
	}
}

func (c *Client) isHostAllowed(host string) bool {
	if len(c.cfg.AllowedHosts) == 0 {
		return true
	}
	for _, allowed := range c.cfg.AllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
