package terminal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/caffeineduck/evalterm/fetch"
	"github.com/dustin/go-humanize"
)

const (
	UsageMessage = "Usage: get [-e] url"
	TypedPrefix  = "You typed: "
)

var statsHeaders = []string{"Content-Type", "Content-Length"}

func (s *Session) dispatch(ctx context.Context, line string, argv []string) {
	var cmd string
	if len(argv) > 0 {
		cmd = argv[0]
	}

	switch cmd {
	case "get":
		if len(argv) >= 2 && argv[1] == "-e" {
			if len(argv) >= 3 {
				if s.get(ctx, argv[2], true) {
					return
				}
				break
			}
		} else if len(argv) >= 2 {
			if s.get(ctx, argv[1], false) {
				return
			}
			break
		}
		s.display.Write(UsageMessage)

	case "help":
		s.display.Clear()
		s.display.Write(BannerText())

	case "exit":
		s.Close()
		return

	default:
		if line != "" {
			s.display.Type(TypedPrefix + line)
			s.display.NewLine()
		}
	}
	s.display.Prompt()
}

// get issues a GET to target and reports whether it was sent. When it was,
// the response callback shows the prompt.
func (s *Session) get(ctx context.Context, target string, payload bool) bool {
	req := &fetch.Request{
		URL:    target,
		Method: http.MethodGet,
	}
	if payload {
		req.Header = http.Header{"Accept": {PayloadMediaType + ", text/plain;q=0.9, */*;q=0.8"}}
		req.CaptureHeaders = statsHeaders
		req.Callback = s.payloadCallback
	} else {
		req.Callback = s.defaultCallback
	}

	if err := s.client.Send(ctx, req); err != nil {
		s.logger.Debug("get not sent", "url", target, "error", err)
		s.display.Write("Request send failed: " + err.Error())
		return false
	}
	return true
}

// defaultCallback shows a response body as-is.
func (s *Session) defaultCallback(resp *fetch.Response) {
	if resp.Success {
		s.display.Write(resp.ResponseText)
	} else {
		s.display.Write(failureText(resp))
	}
	s.display.Prompt()
}

// payloadCallback interprets typed payloads and appends response statistics.
func (s *Session) payloadCallback(resp *fetch.Response) {
	if !resp.Success {
		s.display.Write(failureText(resp))
		s.display.Prompt()
		return
	}

	if p, ok := ParsePayload(resp.ResponseText); ok {
		if err := p.Apply(s.display); err != nil {
			s.display.Write("An error occurred within the server action: " + err.Error())
		}
	} else {
		s.display.Write("Server Response:\n" + resp.ResponseText)
	}

	s.display.NewLine()
	s.display.Write("Response Statistics:")
	s.display.NewLine()
	s.display.Write("  Content-Type: " + resp.Headers.ContentType)
	s.display.NewLine()
	s.display.Write("  Content-Length: " + contentLength(resp))
	s.display.Prompt()
}

func failureText(resp *fetch.Response) string {
	text := fmt.Sprintf("Request failed: %d %s", resp.Status, resp.StatusText)
	if resp.Errno != 0 {
		text += "\n" + resp.Errstring
	}
	return text
}

func contentLength(resp *fetch.Response) string {
	n := resp.Headers.ContentLength
	if raw := resp.Headers.Captured["Content-Length"]; raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			n = parsed
		}
	}
	if n < 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d (%s)", n, humanize.Bytes(uint64(n)))
}
