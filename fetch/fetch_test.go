package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSendDeliversResponseOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Extra", "yes")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := NewClient(Config{})

	var mu sync.Mutex
	var calls []*Response
	var states []ReadyState
	var stateResp []*Response

	err := client.Send(context.Background(), &Request{
		URL:            server.URL,
		Method:         "get",
		CaptureHeaders: []string{"X-Extra"},
		Callback: func(resp *Response) {
			mu.Lock()
			calls = append(calls, resp)
			mu.Unlock()
		},
		OnReadyStateChange: func(s ReadyState, resp *Response) {
			mu.Lock()
			states = append(states, s)
			stateResp = append(stateResp, resp)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	client.Wait()

	if len(calls) != 1 {
		t.Fatalf("expected callback once, got %d", len(calls))
	}

	want := &Response{
		Success:      true,
		Status:       200,
		StatusText:   "OK",
		ResponseText: "hello",
		Headers: Headers{
			ContentType:   "text/plain",
			ContentLength: 5,
			Captured:      map[string]string{"X-Extra": "yes"},
		},
	}
	if diff := cmp.Diff(want, calls[0]); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	wantStates := []ReadyState{Opened, HeadersReceived, Loading, Done}
	if diff := cmp.Diff(wantStates, states); diff != "" {
		t.Errorf("ready states mismatch (-want +got):\n%s", diff)
	}
	for i, resp := range stateResp {
		if states[i] == Done {
			if resp != calls[0] {
				t.Error("Done should carry the callback's response")
			}
		} else if resp != nil {
			t.Errorf("state %v should carry no response", states[i])
		}
	}
}

func TestSendNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{})
	resp, err := client.Do(context.Background(), &Request{URL: server.URL + "/nope"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	if resp.Success {
		t.Error("expected Success to be false")
	}
	if resp.Status != 404 || resp.StatusText != "Not Found" {
		t.Errorf("got status %d %q", resp.Status, resp.StatusText)
	}
	if resp.Errno != 0 {
		t.Errorf("expected no errno for an HTTP error, got %d", resp.Errno)
	}
}

func TestSendNetworkFailureSetsErrno(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := NewClient(Config{})
	resp, err := client.Do(context.Background(), &Request{URL: addr})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	if resp.Success {
		t.Error("expected failure")
	}
	if resp.Status != 0 {
		t.Errorf("expected no status, got %d", resp.Status)
	}
	if resp.Errno == 0 || resp.Errstring == "" {
		t.Errorf("expected errno and errstring, got %d %q", resp.Errno, resp.Errstring)
	}
}

func TestSendPostsHeadersAndBody(t *testing.T) {
	var gotMethod, gotType, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
	}))
	defer server.Close()

	client := NewClient(Config{})
	_, err := client.Do(context.Background(), &Request{
		URL:    server.URL + "/eval?code=1%2B1",
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"text/html"}},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	if gotMethod != "POST" {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotType != "text/html" {
		t.Errorf("expected text/html, got %q", gotType)
	}
	if gotQuery != "code=1%2B1" {
		t.Errorf("expected code=1%%2B1, got %q", gotQuery)
	}
}

func TestSendRejectsBadRequests(t *testing.T) {
	client := NewClient(Config{AllowedHosts: []string{"allowed.com"}, MaxURLLength: 64})

	tests := []struct {
		name string
		req  *Request
		want string
	}{
		{"missing url", &Request{}, "url required"},
		{"bad method", &Request{URL: "http://allowed.com", Method: "BREW"}, "unsupported method: BREW"},
		{"bad scheme", &Request{URL: "ftp://allowed.com/x"}, "scheme must be http or https"},
		{"invalid url", &Request{URL: "://invalid"}, "invalid url"},
		{"too long", &Request{URL: "http://allowed.com/" + strings.Repeat("a", 100)}, "url exceeds max length"},
		{"host", &Request{URL: "http://allowed.com.evil.com/"}, "host not allowed: allowed.com.evil.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			tc.req.Callback = func(*Response) { called = true }
			err := client.Send(context.Background(), tc.req)
			if err == nil || err.Error() != tc.want {
				t.Errorf("expected %q, got %v", tc.want, err)
			}
			client.Wait()
			if called {
				t.Error("callback must not run for a request that was never sent")
			}
		})
	}
}

func TestHostAllowlist(t *testing.T) {
	c := NewClient(Config{AllowedHosts: []string{"example.com"}})

	tests := []struct {
		host    string
		allowed bool
	}{
		{"example.com", true},
		{"api.example.com", true},
		{"example.com.evil.com", false},
		{"evil.com", false},
	}

	for _, tc := range tests {
		if got := c.isHostAllowed(tc.host); got != tc.allowed {
			t.Errorf("isHostAllowed(%q) = %v, want %v", tc.host, got, tc.allowed)
		}
	}

	open := NewClient(Config{})
	if !open.isHostAllowed("anything.test") {
		t.Error("empty allowlist should allow every host")
	}
}

func TestHostNotAllowedIsSentinel(t *testing.T) {
	c := NewClient(Config{AllowedHosts: []string{"example.com"}})
	err := c.Send(context.Background(), &Request{URL: "http://other.org"})
	if !errors.Is(err, ErrHostNotAllowed) {
		t.Errorf("expected ErrHostNotAllowed, got %v", err)
	}
}

func TestMaxBodySizeTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	client := NewClient(Config{MaxBodySize: 10})
	resp, err := client.Do(context.Background(), &Request{URL: server.URL})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(resp.ResponseText) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(resp.ResponseText))
	}
}

func TestReadyStateString(t *testing.T) {
	if Done.String() != "done" {
		t.Errorf("got %q", Done.String())
	}
	if ReadyState(9).String() != "ReadyState(9)" {
		t.Errorf("got %q", ReadyState(9).String())
	}
}
