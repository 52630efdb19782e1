package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discoveryServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.URL.Path]; ok {
			handler(w)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func text(contentType, body string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}
}

// TestDiscoveryFiles tests llms.txt and well-known detection.
func TestDiscoveryFiles(t *testing.T) {
	t.Parallel()

	t.Run("both present", func(t *testing.T) {
		t.Parallel()

		server := discoveryServer(t, map[string]func(http.ResponseWriter){
			"/llms.txt":             text("text/plain", "# Acme\n> Docs for agents"),
			"/.well-known/llm.json": text("application/json", `{"version":"1.0"}`),
		})

		files := NewDiscoverer(localOptions()...).DiscoveryFiles(context.Background(), server.URL+"/deep/page")
		if !files.LLMsTxt || !files.WellKnown || files.Count() != 2 {
			t.Errorf("expected both files, got %+v", files)
		}
	})

	t.Run("soft 404 and invalid json are rejected", func(t *testing.T) {
		t.Parallel()

		server := discoveryServer(t, map[string]func(http.ResponseWriter){
			"/llms.txt":             text("text/html", "<html>Not found</html>"),
			"/.well-known/llm.json": text("application/json", `{"version":`),
		})

		files := NewDiscoverer(localOptions()...).DiscoveryFiles(context.Background(), server.URL)
		if files.Count() != 0 {
			t.Errorf("expected no files, got %+v", files)
		}
	})
}

// TestCrawlControl tests robots.txt and sitemap detection.
func TestCrawlControl(t *testing.T) {
	t.Parallel()

	t.Run("robots blocking all with declared sitemap", func(t *testing.T) {
		t.Parallel()

		var server *httptest.Server
		server = discoveryServer(t, map[string]func(http.ResponseWriter){
			"/robots.txt": func(w http.ResponseWriter) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /\nSitemap: " + server.URL + "/custom.xml\n"))
			},
			"/custom.xml": text("application/xml", `<?xml version="1.0"?><urlset></urlset>`),
		})

		control := NewDiscoverer(localOptions()...).CrawlControl(context.Background(), server.URL)
		if !control.RobotsTxt || !control.BlocksAll {
			t.Errorf("expected blocking robots.txt, got %+v", control)
		}
		if !control.Sitemap || control.SitemapURL != server.URL+"/custom.xml" {
			t.Errorf("expected declared sitemap, got %+v", control)
		}
		if control.Count() != 1 {
			t.Errorf("expected blocking robots not to count, got %d", control.Count())
		}
	})

	t.Run("permissive robots and conventional sitemap", func(t *testing.T) {
		t.Parallel()

		server := discoveryServer(t, map[string]func(http.ResponseWriter){
			"/robots.txt":     text("text/plain", "User-agent: *\nDisallow: /admin\n"),
			"/wp-sitemap.xml": text("application/xml", `<sitemapindex></sitemapindex>`),
		})

		control := NewDiscoverer(localOptions()...).CrawlControl(context.Background(), server.URL)
		if !control.RobotsTxt || control.BlocksAll || !control.Sitemap {
			t.Errorf("unexpected control %+v", control)
		}
		if control.Count() != 2 {
			t.Errorf("expected 2, got %d", control.Count())
		}
	})

	t.Run("nothing served", func(t *testing.T) {
		t.Parallel()

		server := discoveryServer(t, nil)
		control := NewDiscoverer(localOptions()...).CrawlControl(context.Background(), server.URL)
		if control.RobotsTxt || control.Sitemap || control.Count() != 0 {
			t.Errorf("expected empty control, got %+v", control)
		}
	})
}
