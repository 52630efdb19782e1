package signals

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// linkExclusions are removed from the main content before links are collected.
const linkExclusions = "nav, footer, aside, [role=navigation], [role=contentinfo], [role=complementary]"

// legalPath matches privacy, terms, cookie and similar pages.
var legalPath = regexp.MustCompile(`(?i)/(privacy|privacy-policy|terms|terms-of-service|terms-of-use|tos|legal|cookies?|cookie-policy|cookie-settings|gdpr|ccpa|imprint|impressum|disclaimer|accessibility-statement)(/|$|\.)`)

// downloadExt are link targets typed as downloads.
var downloadExt = map[string]bool{
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".dmg": true,
	".exe": true, ".msi": true, ".csv": true, ".xlsx": true, ".docx": true,
}

// Links collects the links of the main content. Relative hrefs are resolved
// against pageURL. Internal links keep path and query only; external links
// keep the absolute URL. At most model.MaxInternalLinks internal and
// model.MaxExternalLinks external links are returned.
func Links(doc *goquery.Document, pageURL string) model.Links {
	links := model.Links{
		Internal: make([]model.LinkItem, 0),
		External: make([]model.LinkItem, 0),
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return links
	}

	root := htmldoc.MainContent(htmldoc.Clone(doc))
	root.Find(linkExclusions).Remove()

	seen := make(map[string]bool)
	root.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(links.Internal) >= model.MaxInternalLinks && len(links.External) >= model.MaxExternalLinks {
			return false
		}

		u := htmldoc.ResolveURL(base, a.AttrOr("href", ""))
		if u == nil || legalPath.MatchString(u.Path) {
			return true
		}
		key := htmldoc.NormalizeURL(u)
		if seen[key] {
			return true
		}
		seen[key] = true

		item := model.LinkItem{Context: linkContext(a), Type: linkType(u)}
		if item.Context == "" {
			item.Context = htmldoc.Truncate(u.Host+htmldoc.PathAndQuery(u), model.MaxLinkContext)
		}

		if htmldoc.SameSite(u, base) {
			if len(links.Internal) < model.MaxInternalLinks {
				item.URL = htmldoc.PathAndQuery(u)
				links.Internal = append(links.Internal, item)
			}
			return true
		}
		if len(links.External) < model.MaxExternalLinks {
			item.URL = u.String()
			links.External = append(links.External, item)
		}
		return true
	})
	return links
}

// linkContext describes a link from its text, aria-label, title, enclosing
// heading or enclosing paragraph, in that order.
func linkContext(a *goquery.Selection) string {
	candidates := []string{
		a.Text(),
		a.Find("img[alt]").AttrOr("alt", ""),
		a.AttrOr("aria-label", ""),
		a.AttrOr("title", ""),
		a.Closest("h1, h2, h3, h4, h5, h6").Text(),
		a.Closest("p, li").Text(),
	}
	for _, c := range candidates {
		if c = htmldoc.CollapseSpace(c); c != "" {
			return htmldoc.Truncate(c, model.MaxLinkContext)
		}
	}
	return ""
}

func linkType(u *url.URL) string {
	if downloadExt[strings.ToLower(path.Ext(u.Path))] {
		return "download"
	}
	return ""
}
