package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pagescope/internal/fetcher"
	"github.com/nao1215/pagescope/internal/htmldoc"
)

func localOptions(extra ...Option) []Option {
	return append([]Option{WithHTTPClient(fetcher.NewSafeClient(true))}, extra...)
}

// TestNegotiation tests derived names.
func TestNegotiation(t *testing.T) {
	t.Parallel()

	n := NewNegotiation("")
	if n.MediaType() != "text/llm+markdown" {
		t.Errorf("unexpected media type %q", n.MediaType())
	}
	if n.Header(FieldVersion) != "X-Llm-Version" {
		t.Errorf("unexpected header %q", n.Header(FieldVersion))
	}
	if n.WellKnownPath() != "/.well-known/llm.json" {
		t.Errorf("unexpected path %q", n.WellKnownPath())
	}
	if NewNegotiation("Agent").MediaType() != "text/agent+markdown" {
		t.Error("expected custom name to be lower-cased")
	}
}

// TestProbe tests protocol negotiation.
func TestProbe(t *testing.T) {
	t.Parallel()

	t.Run("short-circuits without version header", func(t *testing.T) {
		t.Parallel()

		var gets atomic.Int32
		var accept atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept.Store(r.Header.Get("Accept"))
			if r.Method == http.MethodGet {
				gets.Add(1)
			}
		}))
		defer server.Close()

		result := NewProber(localOptions()...).Probe(context.Background(), server.URL, nil)
		if result.Supported || result.Version != nil {
			t.Errorf("expected unsupported result, got %+v", result)
		}
		if gets.Load() != 0 {
			t.Errorf("expected no GET request, got %d", gets.Load())
		}
		if got, _ := accept.Load().(string); got != "text/llm+markdown" {
			t.Errorf("expected negotiation accept header, got %q", got)
		}
	})

	t.Run("reads headers and frontmatter", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-LLM-Version", "1.0")
			h.Set("X-LLM-Type", "documentation")
			h.Set("X-LLM-Lang", "en")
			h.Set("X-LLM-Entity", "Acme Docs")
			h.Set("X-LLM-Tokens", "420")
			h.Set("X-LLM-Updated", "2026-01-02T03:04:05Z")
			h.Set("X-LLM-Canonical", "https://example.com/docs")
			h.Set("ETag", `"abc"`)
			h.Set("Content-Type", "text/llm+markdown; charset=utf-8")
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte("---\nsummary: Acme documentation home\nactions:\n  - name: search\n---\n\n# Docs"))
			}
		}))
		defer server.Close()

		doc, err := htmldoc.Parse(`<html><head><link rel="alternate" type="text/llm+markdown" href="/index.md"></head></html>`)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		result := NewProber(localOptions()...).Probe(context.Background(), server.URL, doc)
		if !result.Supported || result.Version == nil || *result.Version != "1.0" {
			t.Fatalf("expected supported result, got %+v", result)
		}
		if !result.HasDiscoveryLink || result.DiscoveryHref == nil || *result.DiscoveryHref != "/index.md" {
			t.Errorf("expected discovery link, got %+v", result.DiscoveryHref)
		}
		if result.Tokens == nil || *result.Tokens != 420 {
			t.Errorf("expected 420 tokens, got %v", result.Tokens)
		}
		if result.HeaderCount() != 7 {
			t.Errorf("expected 7 headers, got %d", result.HeaderCount())
		}
		if result.ETag == nil || result.ContentType == nil || !strings.HasPrefix(*result.ContentType, "text/llm+markdown") {
			t.Errorf("unexpected etag/content type: %v %v", result.ETag, result.ContentType)
		}
		if result.Frontmatter == nil || result.Frontmatter.Summary == nil || *result.Frontmatter.Summary != "Acme documentation home" {
			t.Fatalf("expected frontmatter summary, got %+v", result.Frontmatter)
		}
		if len(result.Frontmatter.Actions) != 1 || result.Frontmatter.Body != "# Docs" {
			t.Errorf("unexpected frontmatter %+v", result.Frontmatter)
		}
	})

	t.Run("invalid token header is absent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-LLM-Version", "1")
			w.Header().Set("X-LLM-Tokens", "many")
		}))
		defer server.Close()

		result := NewProber(localOptions()...).Probe(context.Background(), server.URL, nil)
		if result.Tokens != nil {
			t.Errorf("expected absent tokens, got %d", *result.Tokens)
		}
	})

	t.Run("network failure degrades silently", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		target := server.URL
		server.Close()

		var outcomes []string
		observer := func(_, outcome string) { outcomes = append(outcomes, outcome) }
		result := NewProber(localOptions(WithObserver(observer))...).Probe(context.Background(), target, nil)
		if result.Supported || result.Error == "" {
			t.Errorf("expected degraded result with error, got %+v", result)
		}
		if len(outcomes) != 1 || outcomes[0] != OutcomeError {
			t.Errorf("expected one error outcome, got %v", outcomes)
		}
	})

	t.Run("timeout degrades silently", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		result := NewProber(localOptions(WithTimeout(50*time.Millisecond))...).Probe(context.Background(), server.URL, nil)
		if result.Error == "" {
			t.Error("expected error to be recorded")
		}
	})

	t.Run("default client refuses loopback", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-LLM-Version", "1")
		}))
		defer server.Close()

		result := NewProber().Probe(context.Background(), server.URL, nil)
		if result.Supported {
			t.Error("expected loopback probe to be refused")
		}
	})
}

// TestDiscoveryLink tests alternate link detection.
func TestDiscoveryLink(t *testing.T) {
	t.Parallel()

	p := NewProber()
	tests := []struct {
		html string
		want string
	}{
		{`<link rel="alternate" type="text/llm+markdown" href="/a.md">`, "/a.md"},
		{`<link rel="Alternate nofollow" type="TEXT/LLM+MARKDOWN" href="/b.md">`, "/b.md"},
		{`<link rel="alternate" type="application/rss+xml" href="/feed">`, ""},
		{`<link rel="stylesheet" type="text/llm+markdown" href="/c.md">`, ""},
	}
	for _, tt := range tests {
		doc, err := htmldoc.Parse("<html><head>" + tt.html + "</head></html>")
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if got := p.DiscoveryLink(doc); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.html, tt.want, got)
		}
	}
	if p.DiscoveryLink(nil) != "" {
		t.Error("expected empty result for nil document")
	}
}

// TestCheck tests the per-page HEAD probe.
func TestCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/yes" {
			w.Header().Set("X-LLM-Version", "1.0")
			w.Header().Set("X-LLM-Tokens", "99")
			w.Header().Set("X-LLM-Type", "faq")
		}
	}))
	defer server.Close()

	p := NewProber(localOptions()...)
	yes := p.Check(context.Background(), server.URL+"/yes")
	if !yes.HasProtocol || yes.Path != "/yes" || yes.Tokens == nil || *yes.Tokens != 99 || yes.Type == nil {
		t.Errorf("unexpected probe %+v", yes)
	}
	no := p.Check(context.Background(), server.URL+"/no")
	if no.HasProtocol || no.Error != "" {
		t.Errorf("unexpected probe %+v", no)
	}
}
