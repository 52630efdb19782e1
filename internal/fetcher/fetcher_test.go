package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/model"
)

// fakeTransport is a fallback Transport with a canned answer.
type fakeTransport struct {
	html  string
	err   error
	calls atomic.Int32
	urls  chan string
}

func (f *fakeTransport) Name() string { return model.FetchedViaReader }

func (f *fakeTransport) Fetch(_ context.Context, rawURL string) (string, error) {
	f.calls.Add(1)
	if f.urls != nil {
		f.urls <- rawURL
	}
	return f.html, f.err
}

func page(size int) string {
	return "<html><body><p>" + strings.Repeat("x", size) + "</p></body></html>"
}

// TestFetchRejectsBlockedHosts tests that unsafe URLs fail before any network call.
func TestFetchRejectsBlockedHosts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(page(1000)))
	}))
	defer server.Close()

	fallback := &fakeTransport{html: page(1000)}
	f := New(WithFallback(fallback))

	targets := []string{
		server.URL,
		"http://127.0.0.1/",
		"http://10.0.0.5/",
		"http://172.16.3.4/admin",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data",
		"http://0.0.0.0/",
		"http://localhost/",
		"http://LOCALHOST./",
		"http://printer.local/",
		"http://db.internal/",
		"http://[::1]/",
		"http://[fe80::1]/",
		"ftp://example.com/",
		"javascript:alert(1)",
		"://bad",
	}

	for _, target := range targets {
		result := f.Fetch(context.Background(), target)
		if result.Kind != KindFailed {
			t.Errorf("%s: expected failure, got %s", target, result.Kind)
			continue
		}
		if !errs.Is(result.Err, errs.InvalidInput) {
			t.Errorf("%s: expected invalid input error, got %v", target, result.Err)
		}
	}

	if hits.Load() != 0 {
		t.Errorf("expected no request to reach the server, got %d", hits.Load())
	}
	if fallback.calls.Load() != 0 {
		t.Errorf("expected no fallback call, got %d", fallback.calls.Load())
	}
}

// TestFetchDirect tests the direct path.
func TestFetchDirect(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends user agent", func(t *testing.T) {
		t.Parallel()

		userAgents := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgents <- r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(page(1000)))
		}))
		defer server.Close()

		f := New(WithPrivateNetworkAccess(), WithUserAgent("test-agent/1.0"))
		result := f.Fetch(context.Background(), server.URL+"/page")

		if result.Kind != KindDirect {
			t.Fatalf("expected direct result, got %s: %v", result.Kind, result.Err)
		}
		if result.UsedFallback() {
			t.Error("expected no fallback")
		}
		if ua := <-userAgents; ua != "test-agent/1.0" {
			t.Errorf("expected user agent test-agent/1.0, got %q", ua)
		}
		if result.Via != model.FetchedViaDirect || result.StatusCode != http.StatusOK {
			t.Errorf("unexpected via/status: %s %d", result.Via, result.StatusCode)
		}
	})

	t.Run("follows redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(page(1000)))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		result := New(WithPrivateNetworkAccess()).Fetch(context.Background(), server.URL+"/old")
		if result.Kind != KindDirect {
			t.Fatalf("expected direct result, got %s: %v", result.Kind, result.Err)
		}
		if result.FinalURL != server.URL+"/new" {
			t.Errorf("expected final url %s/new, got %s", server.URL, result.FinalURL)
		}
	})

	t.Run("truncates body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(page(5000)))
		}))
		defer server.Close()

		result := New(WithPrivateNetworkAccess(), WithMaxBodySize(1024)).Fetch(context.Background(), server.URL)
		if len(result.HTML) != 1024 {
			t.Errorf("expected 1024 bytes, got %d", len(result.HTML))
		}
	})

	t.Run("applies per-host headers", func(t *testing.T) {
		t.Parallel()

		cookies := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookies <- r.Header.Get("Cookie")
			_, _ = w.Write([]byte(page(1000)))
		}))
		defer server.Close()

		headers := func(string) http.Header {
			return http.Header{"Cookie": []string{"session=abc"}}
		}
		New(WithPrivateNetworkAccess(), WithHeaderFunc(headers)).Fetch(context.Background(), server.URL)
		if cookie := <-cookies; cookie != "session=abc" {
			t.Errorf("expected cookie header, got %q", cookie)
		}
	})
}

// TestFetchFallback tests the single fallback attempt.
func TestFetchFallback(t *testing.T) {
	t.Parallel()

	t.Run("small body uses fallback and keeps original url", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/shell", http.StatusFound)
		})
		mux.HandleFunc("/shell", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<div id="root"></div>`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fallback := &fakeTransport{html: page(1000), urls: make(chan string, 1)}
		result := New(WithPrivateNetworkAccess(), WithFallback(fallback)).Fetch(context.Background(), server.URL+"/start")

		if result.Kind != KindFallback || !result.UsedFallback() {
			t.Fatalf("expected fallback result, got %s: %v", result.Kind, result.Err)
		}
		if result.FinalURL != server.URL+"/start" {
			t.Errorf("expected original url, got %s", result.FinalURL)
		}
		if got := <-fallback.urls; got != server.URL+"/start" {
			t.Errorf("expected fallback to receive original url, got %s", got)
		}
		if result.Via != model.FetchedViaReader {
			t.Errorf("expected via reader, got %s", result.Via)
		}
	})

	t.Run("server error uses fallback", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		fallback := &fakeTransport{html: page(1000)}
		result := New(WithPrivateNetworkAccess(), WithFallback(fallback)).Fetch(context.Background(), server.URL)
		if result.Kind != KindFallback {
			t.Fatalf("expected fallback result, got %s", result.Kind)
		}
		if result.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected origin status 500, got %d", result.StatusCode)
		}
	})

	t.Run("both attempts fail", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusGone)
		}))
		defer server.Close()

		fallback := &fakeTransport{err: errors.New("reader down")}
		result := New(WithPrivateNetworkAccess(), WithFallback(fallback)).Fetch(context.Background(), server.URL)
		if result.Kind != KindFailed {
			t.Fatalf("expected failure, got %s", result.Kind)
		}
		if !errs.Is(result.Err, errs.Unreachable) {
			t.Errorf("expected unreachable error, got %v", result.Err)
		}
		if fallback.calls.Load() != 1 {
			t.Errorf("expected exactly one fallback attempt, got %d", fallback.calls.Load())
		}
	})

	t.Run("small body is kept when fallback fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<p>tiny</p>"))
		}))
		defer server.Close()

		fallback := &fakeTransport{err: errors.New("reader down")}
		result := New(WithPrivateNetworkAccess(), WithFallback(fallback)).Fetch(context.Background(), server.URL)
		if result.Kind != KindDirect || result.HTML != "<p>tiny</p>" {
			t.Errorf("expected direct tiny body, got %s %q", result.Kind, result.HTML)
		}
	})

	t.Run("timeout without fallback", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		result := New(WithPrivateNetworkAccess(), WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)
		if result.Kind != KindFailed {
			t.Fatalf("expected failure, got %s", result.Kind)
		}
		if !errs.Is(result.Err, errs.Timeout) {
			t.Errorf("expected timeout error, got %v", result.Err)
		}
	})
}

// TestIsBlockedIP tests the dial-time address check.
func TestIsBlockedIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip      string
		blocked bool
	}{
		{ip: "127.0.0.1", blocked: true},
		{ip: "::1", blocked: true},
		{ip: "10.0.0.1", blocked: true},
		{ip: "172.16.0.1", blocked: true},
		{ip: "192.168.1.1", blocked: true},
		{ip: "169.254.169.254", blocked: true},
		{ip: "fe80::1", blocked: true},
		{ip: "fd00::1", blocked: true},
		{ip: "100.64.0.1", blocked: true},
		{ip: "0.1.2.3", blocked: true},
		{ip: "198.18.0.1", blocked: true},
		{ip: "::ffff:10.0.0.1", blocked: true},
		{ip: "8.8.8.8", blocked: false},
		{ip: "::ffff:8.8.8.8", blocked: false},
		{ip: "2606:4700:4700::1111", blocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			t.Parallel()

			if got := isBlockedIP(netip.MustParseAddr(tt.ip)); got != tt.blocked {
				t.Errorf("isBlockedIP(%s) = %v, want %v", tt.ip, got, tt.blocked)
			}
		})
	}
}

// TestBlockPrivateAddresses tests the dialer control hook.
func TestBlockPrivateAddresses(t *testing.T) {
	t.Parallel()

	if err := blockPrivateAddresses("tcp4", "10.1.2.3:80", nil); !errors.Is(err, ErrBlockedAddress) {
		t.Errorf("expected ErrBlockedAddress, got %v", err)
	}
	if err := blockPrivateAddresses("tcp4", "93.184.216.34:443", nil); err != nil {
		t.Errorf("expected public address to pass, got %v", err)
	}
}

// TestRedirectPolicy tests redirect validation.
func TestRedirectPolicy(t *testing.T) {
	t.Parallel()

	policy := redirectPolicy(false)
	req := func(raw string) *http.Request {
		u, _ := url.Parse(raw)
		return &http.Request{URL: u}
	}

	if err := policy(req("http://10.0.0.1/"), nil); !errors.Is(err, ErrBlockedRedirect) {
		t.Errorf("expected blocked redirect, got %v", err)
	}
	if err := policy(req("file:///etc/passwd"), nil); !errors.Is(err, ErrBlockedRedirect) {
		t.Errorf("expected blocked scheme, got %v", err)
	}
	via := make([]*http.Request, maxRedirects)
	if err := policy(req("https://example.com/"), via); !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("expected too many redirects, got %v", err)
	}
	if err := policy(req("https://example.com/"), nil); err != nil {
		t.Errorf("expected redirect to pass, got %v", err)
	}
}

// TestReaderTransport tests the remote reader fallback.
func TestReaderTransport(t *testing.T) {
	t.Parallel()

	t.Run("sends target url and api key", func(t *testing.T) {
		t.Parallel()

		requests := make(chan *http.Request, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests <- r.Clone(context.Background())
			_, _ = w.Write([]byte("<html><body>rendered</body></html>"))
		}))
		defer server.Close()

		reader := NewReaderTransport(server.URL, WithReaderAPIKey("secret"))
		html, err := reader.Fetch(context.Background(), "https://example.com/page")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(html, "rendered") {
			t.Errorf("unexpected html %q", html)
		}
		got := <-requests
		if !strings.HasSuffix(got.URL.Path, "example.com/page") {
			t.Errorf("expected target in path, got %q", got.URL.Path)
		}
		if got.Header.Get("Authorization") != "Bearer secret" || got.Header.Get("X-Return-Format") != "html" {
			t.Errorf("unexpected headers: %v", got.Header)
		}
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		if _, err := NewReaderTransport(server.URL).Fetch(context.Background(), "https://example.com/"); err == nil {
			t.Error("expected error")
		}
	})
}

// TestKindString tests result kind names.
func TestKindString(t *testing.T) {
	t.Parallel()

	if KindDirect.String() != "direct" || KindFallback.String() != "fallback" || KindFailed.String() != "failed" {
		t.Error("unexpected kind names")
	}
}
