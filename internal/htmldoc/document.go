package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse parses raw HTML into a goquery document.
func Parse(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// Clone returns a deep copy of doc that can be mutated freely.
func Clone(doc *goquery.Document) *goquery.Document {
	clone := doc.Selection.Clone()
	if clone.Length() == 0 {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return goquery.NewDocumentFromNode(clone.Get(0))
}

// alwaysRemoved are dropped wherever they appear.
var alwaysRemoved = []string{
	"script", "style", "noscript", "template", "iframe", "svg", "canvas",
	"nav", "aside", "dialog",
	"[role=navigation]", "[role=complementary]", "[role=dialog]", "[aria-hidden=true]",
	"[class*=cookie]", "[id*=cookie]",
	"[class*=consent]", "[id*=consent]",
	"[class*=newsletter]", "[id*=newsletter]",
	"[class*=subscribe-box]",
	"[class*=comment]", "[id*=comment]",
	".ad", ".ads", ".advert", ".advertisement", ".sponsored",
	"[class^=ad-]", "[id^=ad-]", "[class*=ad-slot]", "[class*=banner-ad]",
	".share", ".social-share", ".breadcrumb", ".breadcrumbs", ".skip-link",
}

// pageChrome is dropped only outside article and main, where it holds
// site-wide headers and footers rather than an article's own byline.
var pageChrome = []string{
	"header", "footer", "[role=banner]", "[role=contentinfo]",
}

// structural elements are never removed, nor is anything wrapping one,
// even when a class name such as "cookies-not-set" matches a pattern.
const structural = "html, body, main, [role=main]"

// isStructural reports whether s is page structure rather than boilerplate.
// A top-level article counts; articles nested in another article are
// usually comments and stay removable.
func isStructural(s *goquery.Selection) bool {
	if s.Is(structural) || s.Find(structural).Length() > 0 {
		return true
	}
	return s.Is("article") && s.ParentsFiltered("article").Length() == 0
}

// RemoveBoilerplate deletes navigation, ads, consent banners and other
// non-content nodes from sel in place.
func RemoveBoilerplate(sel *goquery.Selection) {
	sel.Find(strings.Join(alwaysRemoved, ", ")).Each(func(_ int, s *goquery.Selection) {
		if !isStructural(s) {
			s.Remove()
		}
	})
	sel.Find(strings.Join(pageChrome, ", ")).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("article, main, [role=main]").Length() == 0 {
			s.Remove()
		}
	})
}

// mainSelectors are tried in order to locate the main content root.
var mainSelectors = []string{
	"main",
	"article",
	"[role=main]",
	"#main-content",
	"#content",
	".main-content",
	".post-content",
	".entry-content",
	".article-body",
	".markdown-body",
	".content",
}

// MainContent returns the first non-empty match of the main content
// selectors, falling back to body and then to the whole document.
func MainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range mainSelectors {
		found := doc.Find(selector).First()
		if found.Length() > 0 && strings.TrimSpace(found.Text()) != "" {
			return found
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxRunes runes, ending with an ellipsis
// when it was cut.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(runes[:maxRunes])
	}
	return strings.TrimSpace(string(runes[:maxRunes-1])) + "…"
}

// Attr retrieves an attribute value from an HTML node.
func Attr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
