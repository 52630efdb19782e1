package model

import (
	"net/url"
	"strings"
	"time"
)

// AnalysisResult is the output of an analyze request.
type AnalysisResult struct {
	ID                    string               `json:"id"`
	URL                   string               `json:"url"`
	FinalURL              string               `json:"finalUrl"`
	Domain                string               `json:"domain"`
	Title                 string               `json:"title,omitempty"`
	Entity                string               `json:"entity"`
	Summary               string               `json:"summary"`
	ContentType           ContentType          `json:"contentType"`
	Language              string               `json:"language"`
	Markdown              string               `json:"markdown"`
	ContentHash           string               `json:"contentHash"`
	HTMLTokens            int                  `json:"htmlTokens"`
	MarkdownTokens        int                  `json:"markdownTokens"`
	TokenReduction        int                  `json:"tokenReductionPercent"`
	Links                 Links                `json:"links"`
	Actions               []ActionItem         `json:"actions"`
	UsedFallbackTransport bool                 `json:"usedFallbackTransport"`
	FetchedVia            string               `json:"fetchedVia"`
	Protocol              *ProtocolProbeResult `json:"protocol,omitempty"`
	Site                  *SiteProbeResult     `json:"site,omitempty"`
	AnalyzedAt            time.Time            `json:"analyzedAt"`
}

// NewAnalysisResult flattens a page and its probe results.
func NewAnalysisResult(id string, page *PageData, protocol *ProtocolProbeResult, site *SiteProbeResult) *AnalysisResult {
	return &AnalysisResult{
		ID:                    id,
		URL:                   page.URL,
		FinalURL:              page.FinalURL,
		Domain:                DomainOf(page.FinalURL),
		Title:                 page.Title,
		Entity:                page.Entity,
		Summary:               page.Summary,
		ContentType:           page.ContentType,
		Language:              page.Language,
		Markdown:              page.Markdown,
		ContentHash:           page.ContentHash,
		HTMLTokens:            page.HTMLTokens,
		MarkdownTokens:        page.MarkdownTokens,
		TokenReduction:        TokenReduction(page.HTMLTokens, page.MarkdownTokens),
		Links:                 page.Links,
		Actions:               page.Actions,
		UsedFallbackTransport: page.UsedFallbackTransport,
		FetchedVia:            page.FetchedVia,
		Protocol:              protocol,
		Site:                  site,
		AnalyzedAt:            time.Now().UTC(),
	}
}

// TokenReduction returns the percentage of HTML tokens saved by the Markdown
// rendering, in the range 0-100.
func TokenReduction(htmlTokens, markdownTokens int) int {
	if htmlTokens <= 0 || markdownTokens >= htmlTokens {
		return 0
	}
	return (htmlTokens - markdownTokens) * 100 / htmlTokens
}

// DomainOf returns the lower-cased host of rawURL without a leading "www.".
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
