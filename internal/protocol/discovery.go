package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescope/internal/model"
)

// Discovery outcome labels passed to an Observer.
const (
	OutcomeFound   = "found"
	OutcomeMissing = "missing"
)

// LLMsTxtPath is the third-party discovery file for language models.
const LLMsTxtPath = "/llms.txt"

// SitemapPaths are tried in order when robots.txt names no sitemap that works.
var SitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml", "/wp-sitemap.xml"}

// discoveryBodyLimit bounds every discovery download.
const discoveryBodyLimit = 512 << 10

// Discoverer checks the site-level documents of an origin.
type Discoverer struct {
	settings
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(opts ...Option) *Discoverer {
	return &Discoverer{settings: newSettings(opts)}
}

// DiscoveryFiles checks /llms.txt and the well-known JSON document of the
// origin of pageURL concurrently.
func (d *Discoverer) DiscoveryFiles(ctx context.Context, pageURL string) model.DiscoveryFiles {
	var files model.DiscoveryFiles
	origin, err := originOf(pageURL)
	if err != nil {
		return files
	}

	var g errgroup.Group
	g.Go(func() error {
		files.LLMsTxt = d.hasLLMsTxt(ctx, origin+LLMsTxtPath)
		return nil
	})
	g.Go(func() error {
		files.WellKnown = d.hasWellKnown(ctx, origin+d.negotiation.WellKnownPath())
		return nil
	})
	_ = g.Wait()
	return files
}

// CrawlControl reads robots.txt and looks for a sitemap. Sitemaps named in
// robots.txt are tried before the conventional paths.
func (d *Discoverer) CrawlControl(ctx context.Context, pageURL string) model.CrawlControl {
	var control model.CrawlControl
	origin, err := originOf(pageURL)
	if err != nil {
		return control
	}

	var (
		declared     []string
		conventional string
	)
	var g errgroup.Group
	g.Go(func() error {
		control.RobotsTxt, control.BlocksAll, declared = d.robots(ctx, origin+"/robots.txt")
		return nil
	})
	g.Go(func() error {
		for _, p := range SitemapPaths {
			if d.isSitemap(ctx, origin+p) {
				conventional = origin + p
				return nil
			}
		}
		return nil
	})
	_ = g.Wait()

	for _, sitemap := range declared {
		if d.isSitemap(ctx, sitemap) {
			control.Sitemap, control.SitemapURL = true, sitemap
			return control
		}
	}
	if conventional != "" {
		control.Sitemap, control.SitemapURL = true, conventional
	}
	return control
}

func (d *Discoverer) hasLLMsTxt(ctx context.Context, target string) bool {
	status, header, body, err := d.get(ctx, target)
	found := err == nil && status == http.StatusOK && isPlainText(header, body)
	d.observe("llms_txt", found, err)
	return found
}

func (d *Discoverer) hasWellKnown(ctx context.Context, target string) bool {
	status, _, body, err := d.get(ctx, target)
	body = bytes.TrimSpace(body)
	found := err == nil && status == http.StatusOK &&
		bytes.HasPrefix(body, []byte("{")) && json.Valid(body)
	d.observe("well_known", found, err)
	return found
}

// robots reports whether robots.txt exists, whether it disallows everything
// for every agent and which sitemaps it declares.
func (d *Discoverer) robots(ctx context.Context, target string) (bool, bool, []string) {
	status, header, body, err := d.get(ctx, target)
	if err != nil || status != http.StatusOK || !isPlainText(header, body) {
		d.observe("robots_txt", false, err)
		return false, false, nil
	}
	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		d.observe("robots_txt", false, err)
		return false, false, nil
	}
	d.observe("robots_txt", true, nil)
	return true, !data.TestAgent("/", "*"), data.Sitemaps
}

func (d *Discoverer) isSitemap(ctx context.Context, target string) bool {
	status, _, body, err := d.get(ctx, target)
	if err != nil || status != http.StatusOK {
		return false
	}
	if bytes.HasPrefix(body, []byte{0x1f, 0x8b}) {
		return true
	}
	lower := bytes.ToLower(body)
	return bytes.Contains(lower, []byte("<urlset")) || bytes.Contains(lower, []byte("<sitemapindex"))
}

func (d *Discoverer) get(ctx context.Context, target string) (int, http.Header, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, discoveryBodyLimit))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (d *Discoverer) observe(probe string, found bool, err error) {
	switch {
	case err != nil:
		d.observer(probe, OutcomeError)
		d.logger.Debug("discovery probe failed", "probe", probe, "error", err)
	case found:
		d.observer(probe, OutcomeFound)
	default:
		d.observer(probe, OutcomeMissing)
	}
}

// isPlainText rejects HTML bodies, which soft-404 pages serve with status 200.
func isPlainText(header http.Header, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(header.Get("Content-Type")), "text/html") {
		return false
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] != '<'
}

func originOf(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", pageURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
