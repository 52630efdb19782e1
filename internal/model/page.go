package model

import "github.com/PuerkitoBio/goquery"

// Limits applied by the signal extractors.
const (
	MaxEntityLength   = 100
	MaxSummaryLength  = 160
	MaxLinkContext    = 120
	MaxInternalLinks  = 10
	MaxExternalLinks  = 5
	MaxActions        = 5
	DefaultLanguage   = "en"
	FetchedViaDirect  = "direct"
	FetchedViaReader  = "reader"
	FetchedViaBrowser = "browser"
)

// PageData is the extracted representation of one analyzed URL.
// It is produced once per request and is not shared across requests.
type PageData struct {
	// URL is the URL the caller asked for.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. When the fallback transport was
	// used it stays equal to URL.
	FinalURL string `json:"finalUrl"`

	// RawHTML is the fetched body, truncated to the fetch size ceiling.
	RawHTML string `json:"-"`

	// Document is the parsed DOM of RawHTML.
	Document *goquery.Document `json:"-"`

	// Markdown is the boilerplate-free Markdown rendering of the page.
	Markdown string `json:"markdown"`

	// ContentHash is the hex SHA3-256 of Markdown.
	ContentHash string `json:"contentHash"`

	Title string `json:"title,omitempty"`

	HTMLTokens     int `json:"htmlTokens"`
	MarkdownTokens int `json:"markdownTokens"`

	ContentType ContentType `json:"contentType"`

	// Entity is the primary subject of the page, at most MaxEntityLength runes.
	Entity string `json:"entity"`

	// Summary is a short description, at most MaxSummaryLength runes.
	Summary string `json:"summary"`

	Links   Links        `json:"links"`
	Actions []ActionItem `json:"actions"`

	// Language is a two-letter language code.
	Language string `json:"language"`

	// StructuredData holds every JSON-LD object that parsed successfully,
	// with @graph arrays flattened.
	StructuredData []map[string]any `json:"-"`

	// UsedFallbackTransport is true when the page could only be read through
	// the reader or browser fallback.
	UsedFallbackTransport bool `json:"usedFallbackTransport"`

	// FetchedVia is one of FetchedViaDirect, FetchedViaReader, FetchedViaBrowser.
	FetchedVia string `json:"fetchedVia"`
}

// Links groups the extracted internal and external links.
type Links struct {
	Internal []LinkItem `json:"internal"`
	External []LinkItem `json:"external"`
}

// LinkItem is a link found in the main content.
// Internal links keep only path and query; external links keep the absolute URL.
type LinkItem struct {
	URL     string `json:"url"`
	Context string `json:"context"`
	Type    string `json:"type,omitempty"`
}

// ActionItem is a user action the page offers, named from a closed vocabulary.
type ActionItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
