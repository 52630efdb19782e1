package signals

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// Meta returns the content of the first meta tag whose name or property
// equals key, case-insensitively.
func Meta(doc *goquery.Document, key string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		if !strings.EqualFold(name, key) {
			return true
		}
		value = htmldoc.CollapseSpace(s.AttrOr("content", ""))
		return value == ""
	})
	return value
}

// Title returns the text of the <title> element, or og:title when the page
// has no title.
func Title(doc *goquery.Document) string {
	if title := htmldoc.CollapseSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return Meta(doc, "og:title")
}

// minSummaryParagraph is the shortest paragraph used as a summary fallback.
const minSummaryParagraph = 40

// Summary returns the meta description, og:description or the first
// substantial paragraph of the main content, truncated to
// model.MaxSummaryLength runes.
func Summary(doc *goquery.Document) string {
	for _, key := range []string{"description", "og:description", "twitter:description"} {
		if s := Meta(doc, key); s != "" {
			return htmldoc.Truncate(s, model.MaxSummaryLength)
		}
	}

	var summary string
	htmldoc.MainContent(doc).Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := htmldoc.CollapseSpace(s.Text())
		if len([]rune(text)) >= minSummaryParagraph {
			summary = text
			return false
		}
		return true
	})
	return htmldoc.Truncate(summary, model.MaxSummaryLength)
}

// Language returns the two-letter base language of the page, taken from the
// html lang attribute or a Content-Language meta tag. It defaults to
// model.DefaultLanguage.
func Language(doc *goquery.Document) string {
	candidates := []string{doc.Find("html").AttrOr("lang", "")}
	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		if strings.EqualFold(s.AttrOr("http-equiv", ""), "content-language") {
			candidates = append(candidates, s.AttrOr("content", ""))
		}
	})

	for _, raw := range candidates {
		raw = strings.TrimSpace(strings.Split(raw, ",")[0])
		if raw == "" {
			continue
		}
		tag, err := language.Parse(raw)
		if err != nil {
			continue
		}
		base, confidence := tag.Base()
		if confidence == language.No {
			continue
		}
		if code := base.String(); len(code) == 2 {
			return code
		}
	}
	return model.DefaultLanguage
}

// titleSuffix matches a trailing " | Site", " - Site", " — Site" or " · Site".
var titleSuffix = regexp.MustCompile(`\s+[|\-–—·:]\s+[^|\-–—·:]+$`)

// Entity returns the primary subject of the page. It tries JSON-LD name and
// headline fields, the first h1, og:title and finally the <title> without its
// site-name suffix. The result is at most model.MaxEntityLength runes.
func Entity(doc *goquery.Document, items []map[string]any) string {
	for _, item := range items {
		for _, key := range []string{"name", "headline"} {
			if s := stringField(item, key); s != "" {
				return htmldoc.Truncate(htmldoc.CollapseSpace(s), model.MaxEntityLength)
			}
		}
	}
	if h1 := htmldoc.CollapseSpace(doc.Find("h1").First().Text()); h1 != "" {
		return htmldoc.Truncate(h1, model.MaxEntityLength)
	}
	if og := Meta(doc, "og:title"); og != "" {
		return htmldoc.Truncate(og, model.MaxEntityLength)
	}
	title := htmldoc.CollapseSpace(doc.Find("title").First().Text())
	if stripped := strings.TrimSpace(titleSuffix.ReplaceAllString(title, "")); stripped != "" {
		title = stripped
	}
	return htmldoc.Truncate(title, model.MaxEntityLength)
}
