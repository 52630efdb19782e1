package model

// ProtocolProbeResult records what the origin answered when asked for the
// Markdown representation. Nil pointer fields mean the header or value was
// absent, which is different from an empty value.
type ProtocolProbeResult struct {
	// HasDiscoveryLink is true when the page carries an alternate <link> tag
	// advertising the Markdown representation.
	HasDiscoveryLink bool `json:"hasDiscoveryLink"`

	// DiscoveryHref is the href of that tag, if any.
	DiscoveryHref *string `json:"discoveryHref,omitempty"`

	// Supported is true when the HEAD response carried a version header.
	Supported bool `json:"supported"`

	Version     *string `json:"version,omitempty"`
	Type        *string `json:"type,omitempty"`
	Language    *string `json:"language,omitempty"`
	Entity      *string `json:"entity,omitempty"`
	Tokens      *int    `json:"tokens,omitempty"`
	Updated     *string `json:"updated,omitempty"`
	Canonical   *string `json:"canonical,omitempty"`
	ETag        *string `json:"etag,omitempty"`
	ContentType *string `json:"contentType,omitempty"`

	// Frontmatter is set only when the GET body starts with a delimited block.
	Frontmatter *Frontmatter `json:"frontmatter,omitempty"`

	// Error describes why the probe degraded, if it did.
	Error string `json:"error,omitempty"`
}

// HeaderCount returns how many protocol headers were present.
func (p *ProtocolProbeResult) HeaderCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, present := range []bool{
		p.Version != nil,
		p.Type != nil,
		p.Language != nil,
		p.Entity != nil,
		p.Tokens != nil,
		p.Updated != nil,
		p.Canonical != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

// Frontmatter is the recognized subset of a protocol response's metadata block.
type Frontmatter struct {
	Summary       *string          `json:"summary,omitempty"`
	Body          string           `json:"body"`
	Actions       []DeclaredAction `json:"actions,omitempty"`
	InternalLinks []DeclaredLink   `json:"internalLinks,omitempty"`
}

// DeclaredAction is an entry of the frontmatter actions list.
type DeclaredAction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Complete reports whether the action declares name, description and url.
func (a DeclaredAction) Complete() bool {
	return a.Name != "" && a.Description != "" && a.URL != ""
}

// DeclaredLink is an entry of the frontmatter links.internal list.
type DeclaredLink struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// SitePageProbe is the protocol probe outcome for one sampled page.
type SitePageProbe struct {
	URL         string  `json:"url"`
	Path        string  `json:"path"`
	HasProtocol bool    `json:"hasProtocol"`
	Version     *string `json:"version,omitempty"`
	Tokens      *int    `json:"tokens,omitempty"`
	Type        *string `json:"type,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// SiteProbeResult summarizes protocol adoption across sampled pages.
type SiteProbeResult struct {
	Pages           []SitePageProbe `json:"pages"`
	MatchCount      int             `json:"matchCount"`
	TotalChecked    int             `json:"totalChecked"`
	AdoptionPercent int             `json:"adoptionPercent"`
}

// NewSiteProbeResult derives the counters from the per-page results.
func NewSiteProbeResult(pages []SitePageProbe) *SiteProbeResult {
	result := &SiteProbeResult{
		Pages:        pages,
		TotalChecked: len(pages),
	}
	if result.Pages == nil {
		result.Pages = []SitePageProbe{}
	}
	for _, p := range pages {
		if p.HasProtocol {
			result.MatchCount++
		}
	}
	if result.TotalChecked > 0 {
		// Round half up on integers.
		result.AdoptionPercent = (200*result.MatchCount + result.TotalChecked) / (2 * result.TotalChecked)
	}
	return result
}

// DiscoveryFiles records which third-party discovery documents the site serves.
type DiscoveryFiles struct {
	// LLMsTxt is true when /llms.txt answered 200 with a plain-text body.
	LLMsTxt bool `json:"llmsTxt"`

	// WellKnown is true when the well-known JSON document answered 200 with valid JSON.
	WellKnown bool `json:"wellKnown"`
}

// Count returns how many discovery documents were found.
func (d DiscoveryFiles) Count() int {
	n := 0
	if d.LLMsTxt {
		n++
	}
	if d.WellKnown {
		n++
	}
	return n
}

// CrawlControl records the site's robots.txt and sitemap.
type CrawlControl struct {
	RobotsTxt bool `json:"robotsTxt"`

	// BlocksAll is true when robots.txt disallows everything for every agent.
	BlocksAll bool `json:"blocksAll"`

	Sitemap    bool   `json:"sitemap"`
	SitemapURL string `json:"sitemapUrl,omitempty"`
}

// Count returns how many crawl-control files are usable. A robots.txt that
// blocks everything does not count.
func (c CrawlControl) Count() int {
	n := 0
	if c.RobotsTxt && !c.BlocksAll {
		n++
	}
	if c.Sitemap {
		n++
	}
	return n
}
