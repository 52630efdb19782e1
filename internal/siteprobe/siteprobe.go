// Package siteprobe samples a site's navigation links and checks each of
// them for protocol support concurrently.
package siteprobe

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// DefaultLimit is the maximum number of sampled pages.
const DefaultLimit = 10

// regions are searched for links in this order.
var regions = []string{"nav", "header", "main", "article"}

// resourceExt are link targets that are not pages.
var resourceExt = map[string]bool{
	".css": true, ".js": true, ".mjs": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".avif": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pdf": true, ".zip": true, ".gz": true, ".mp3": true, ".mp4": true, ".webm": true,
	".xml": true, ".json": true, ".rss": true, ".atom": true, ".txt": true,
}

// Checker probes one page for protocol support. *protocol.Prober implements it.
type Checker interface {
	Check(ctx context.Context, pageURL string) model.SitePageProbe
}

// Prober runs the site-wide probe.
type Prober struct {
	checker Checker
	limit   int
	logger  *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithLimit sets the maximum number of sampled pages.
func WithLimit(limit int) Option {
	return func(p *Prober) {
		if limit > 0 {
			p.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// New creates a Prober that checks pages with checker.
func New(checker Checker, opts ...Option) *Prober {
	p := &Prober{
		checker: checker,
		limit:   DefaultLimit,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProbeSite collects navigation links from doc and checks all of them in
// parallel. Each check is bounded by the checker's own timeout, and a
// failed check is recorded in its page entry instead of failing the batch.
func (p *Prober) ProbeSite(ctx context.Context, doc *goquery.Document, pageURL string) *model.SiteProbeResult {
	urls := CollectLinks(doc, pageURL, p.limit)
	pages := make([]model.SitePageProbe, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			pages[i] = p.checker.Check(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	result := model.NewSiteProbeResult(pages)
	p.logger.Debug("site probe finished",
		"url", pageURL,
		"checked", result.TotalChecked,
		"matched", result.MatchCount,
		"adoption_percent", result.AdoptionPercent)
	return result
}

// CollectLinks returns up to limit distinct same-site page URLs found in the
// nav, header, main and article regions of doc, in that order. Resources
// such as styles, scripts, images and fonts are skipped, as is the homepage.
func CollectLinks(doc *goquery.Document, pageURL string, limit int) []string {
	urls := make([]string, 0, limit)
	if doc == nil || limit <= 0 {
		return urls
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return urls
	}

	seen := make(map[string]bool)
	for _, region := range regions {
		doc.Find(region + " a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			u := htmldoc.ResolveURL(base, a.AttrOr("href", ""))
			if u == nil || !htmldoc.SameSite(u, base) || isHomepage(u) || isResource(u) {
				return true
			}
			key := htmldoc.NormalizeURL(u)
			if seen[key] {
				return true
			}
			seen[key] = true
			urls = append(urls, u.String())
			return len(urls) < limit
		})
		if len(urls) >= limit {
			break
		}
	}
	return urls
}

func isHomepage(u *url.URL) bool {
	return (u.Path == "" || u.Path == "/") && u.RawQuery == ""
}

func isResource(u *url.URL) bool {
	return resourceExt[strings.ToLower(path.Ext(u.Path))]
}
