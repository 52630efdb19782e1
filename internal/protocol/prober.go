package protocol

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/fetcher"
	"github.com/nao1215/pagescope/internal/model"
)

// Probe outcome labels passed to an Observer.
const (
	OutcomeSupported   = "supported"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
)

// Observer is notified of every probe outcome, for metrics.
type Observer func(probe, outcome string)

// Prober negotiates the Markdown representation of a single page.
type Prober struct {
	settings
}

// Option configures a Prober or a Discoverer.
type Option func(*settings)

// settings is shared by Prober and Discoverer.
type settings struct {
	client      *http.Client
	negotiation Negotiation
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	observer    Observer
	logger      *slog.Logger
}

// WithHTTPClient sets the HTTP client. The default client refuses private
// network destinations.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

// WithProtocolName sets the protocol name used for headers and paths.
func WithProtocolName(name string) Option {
	return func(s *settings) {
		s.negotiation = NewNegotiation(name)
	}
}

// WithTimeout sets the timeout of each request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *settings) {
		s.userAgent = ua
	}
}

// WithObserver sets the outcome observer.
func WithObserver(observer Observer) Option {
	return func(s *settings) {
		s.observer = observer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		negotiation: NewNegotiation(DefaultName),
		timeout:     DefaultTimeout,
		userAgent:   fetcher.DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		observer:    func(string, string) {},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.client == nil {
		s.client = fetcher.NewSafeClient(false)
	}
	return s
}

// NewProber creates a Prober.
func NewProber(opts ...Option) *Prober {
	return &Prober{settings: newSettings(opts)}
}

// Negotiation returns the protocol naming used by p.
func (p *Prober) Negotiation() Negotiation {
	return p.negotiation
}

// DiscoveryLink returns the href of the page's alternate link advertising
// the Markdown representation, or "" when there is none.
func (p *Prober) DiscoveryLink(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var href string
	found := false
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rels := strings.Fields(strings.ToLower(s.AttrOr("rel", "")))
		if !slices.Contains(rels, "alternate") || !strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), p.negotiation.MediaType()) {
			return true
		}
		href = strings.TrimSpace(s.AttrOr("href", ""))
		found = true
		return false
	})
	if !found {
		return ""
	}
	if href == "" {
		// A tag without href still advertises support for the page itself.
		return "."
	}
	return href
}

// Probe checks pageURL for protocol support. It looks for the discovery link
// in doc, then sends a HEAD request and, only when the HEAD response carries
// a version header, a GET request whose headers and frontmatter are
// recorded. Probe never fails; problems are reported in the Error field.
func (p *Prober) Probe(ctx context.Context, pageURL string, doc *goquery.Document) *model.ProtocolProbeResult {
	result := &model.ProtocolProbeResult{}
	if href := p.DiscoveryLink(doc); href != "" {
		result.HasDiscoveryLink = true
		result.DiscoveryHref = &href
	}

	head, err := p.request(ctx, http.MethodHead, pageURL)
	if err != nil {
		result.Error = err.Error()
		p.observer("negotiation", OutcomeError)
		p.logger.Debug("protocol HEAD probe failed", "url", pageURL, "error", err)
		return result
	}
	version := strings.TrimSpace(head.header.Get(p.negotiation.Header(FieldVersion)))
	if version == "" {
		p.observer("negotiation", OutcomeUnsupported)
		return result
	}
	result.Supported = true
	result.Version = &version
	p.observer("negotiation", OutcomeSupported)

	get, err := p.request(ctx, http.MethodGet, pageURL)
	if err != nil {
		result.Error = err.Error()
		p.logger.Debug("protocol GET probe failed", "url", pageURL, "error", err)
		return result
	}

	h := get.header
	result.Type = headerValue(h, p.negotiation.Header(FieldType))
	result.Language = headerValue(h, p.negotiation.Header(FieldLang))
	result.Entity = headerValue(h, p.negotiation.Header(FieldEntity))
	result.Tokens = intHeader(h, p.negotiation.Header(FieldTokens))
	result.Updated = headerValue(h, p.negotiation.Header(FieldUpdated))
	result.Canonical = headerValue(h, p.negotiation.Header(FieldCanonical))
	result.ETag = headerValue(h, "ETag")
	result.ContentType = headerValue(h, "Content-Type")
	if fm, ok := ParseFrontmatter(get.body); ok {
		result.Frontmatter = fm
	}
	return result
}

// Check sends the HEAD negotiation request to pageURL and reports whether
// it carried a version header. It is the per-page probe of the site probe.
func (p *Prober) Check(ctx context.Context, pageURL string) model.SitePageProbe {
	probe := model.SitePageProbe{URL: pageURL, Path: pathOf(pageURL)}

	head, err := p.request(ctx, http.MethodHead, pageURL)
	if err != nil {
		probe.Error = err.Error()
		p.observer("site_page", OutcomeError)
		return probe
	}
	if version := headerValue(head.header, p.negotiation.Header(FieldVersion)); version != nil {
		probe.HasProtocol = true
		probe.Version = version
		probe.Tokens = intHeader(head.header, p.negotiation.Header(FieldTokens))
		probe.Type = headerValue(head.header, p.negotiation.Header(FieldType))
		p.observer("site_page", OutcomeSupported)
		return probe
	}
	p.observer("site_page", OutcomeUnsupported)
	return probe
}

// response is what a negotiation request returned.
type response struct {
	status int
	header http.Header
	body   string
}

// request sends one negotiation request bounded by the probe timeout.
func (p *Prober) request(ctx context.Context, method, rawURL string) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Accept", p.negotiation.MediaType())
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	out := &response{status: resp.StatusCode, header: resp.Header}
	if method == http.MethodGet {
		body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s body: %w", rawURL, err)
		}
		out.body = string(body)
	}
	return out, nil
}

func headerValue(h http.Header, key string) *string {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func intHeader(h http.Header, key string) *int {
	v := headerValue(h, key)
	if v == nil {
		return nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
