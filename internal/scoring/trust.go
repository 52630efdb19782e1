package scoring

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/model"
	"github.com/nao1215/pagescope/internal/signals"
)

// Trustworthiness check IDs.
const (
	CheckStructuredData      = "structured_data"
	CheckStructuredDataDepth = "structured_data_depth"
	CheckMetaCompleteness    = "meta_completeness"
	CheckCrawlControl        = "crawl_control"
	CheckProtocolFreshness   = "protocol_freshness"
	CheckProtocolCaching     = "protocol_caching"
	CheckSummaryQuality      = "summary_quality"
)

var trustRules = struct {
	structured, depth, meta, crawl, freshness, caching, summary rule
}{
	structured: rule{
		id: CheckStructuredData, name: "Structured data", maxPoints: 5,
		scale: atLeast(1, 5), pass: passAtMax,
	},
	depth: rule{
		id: CheckStructuredDataDepth, name: "Structured data depth", maxPoints: 4,
		scale: atLeast(8, 4, 5, 3, 3, 1), pass: passValueAtLeast(5),
	},
	meta: rule{
		id: CheckMetaCompleteness, name: "Meta completeness", maxPoints: 5,
		scale: atLeast(6, 5, 4, 3, 2, 1), pass: passValueAtLeast(4),
	},
	crawl: rule{
		id: CheckCrawlControl, name: "Crawl control", maxPoints: 4,
		scale: atLeast(2, 4, 1, 2), pass: passValueAtLeast(1),
	},
	freshness: rule{
		id: CheckProtocolFreshness, name: "Protocol freshness", maxPoints: 4,
		scale: atMost(30, 4, 180, 2, math.Inf(1), 1), pass: passValueAtMost(180),
	},
	caching: rule{
		id: CheckProtocolCaching, name: "Protocol caching", maxPoints: 3,
		scale: atLeast(2, 3, 1, 1), pass: passValueAtLeast(2),
	},
	summary: rule{
		id: CheckSummaryQuality, name: "Summary quality", maxPoints: 5,
		scale: bands{{low: 50, high: 160, points: 5}, {low: 20, high: 300, points: 2}},
		pass:  passValueWithin(50, 160),
	},
}

// updatedLayouts are the accepted formats of the Updated header.
var updatedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
	http.TimeFormat,
	time.RFC1123Z,
}

type trust struct {
	files SiteFiles
	now   func() time.Time
}

func (t *trust) Category() string { return model.CategoryTrust }

func (t *trust) MaxPoints() int { return 30 }

func (t *trust) Evaluate(ctx context.Context, in Input) []model.ScoreCheck {
	rules := trustRules
	page, probe := in.Page, in.Probe

	objects := len(page.StructuredData)
	depth := StructuredDataDepth(page.StructuredData)
	checks := []model.ScoreCheck{
		rules.structured.evaluate(float64(objects), fmt.Sprintf("%d JSON-LD objects", objects)),
		rules.depth.evaluate(float64(depth), fmt.Sprintf("richest object has %d properties", depth)),
	}

	if page.Document != nil {
		have, missing := MetaCompleteness(page.Document)
		details := fmt.Sprintf("%d of 6 present", have)
		if len(missing) > 0 {
			details += ", missing " + strings.Join(missing, ", ")
		}
		checks = append(checks, rules.meta.evaluate(float64(have), details))
	} else {
		checks = append(checks, rules.meta.missing("document not available"))
	}

	var control model.CrawlControl
	if t.files != nil {
		control = t.files.CrawlControl(ctx, page.FinalURL)
	}
	checks = append(checks, rules.crawl.evaluate(float64(control.Count()), crawlDetails(control)))

	if probe.Updated == nil {
		checks = append(checks, rules.freshness.missing("no updated header"))
	} else if updated, ok := ParseUpdated(*probe.Updated); ok {
		age := max(t.now().Sub(updated).Hours()/24, 0)
		checks = append(checks, rules.freshness.evaluate(age, fmt.Sprintf("updated %.0f days ago", age)))
	} else {
		checks = append(checks, rules.freshness.missing("unparseable updated header "+*probe.Updated))
	}

	caching := present(probe.ETag != nil) + present(probe.Canonical != nil)
	checks = append(checks, rules.caching.evaluate(caching,
		fmt.Sprintf("ETag: %s, canonical: %s", presence(probe.ETag != nil), presence(probe.Canonical != nil))))

	if probe.Frontmatter == nil || probe.Frontmatter.Summary == nil {
		checks = append(checks, rules.summary.missing("no frontmatter summary"))
	} else {
		length := len([]rune(strings.TrimSpace(*probe.Frontmatter.Summary)))
		checks = append(checks, rules.summary.evaluate(float64(length),
			fmt.Sprintf("summary is %d characters", length)))
	}

	return checks
}

func crawlDetails(c model.CrawlControl) string {
	robots := presence(c.RobotsTxt)
	if c.BlocksAll {
		robots = "blocks all crawlers"
	}
	return fmt.Sprintf("robots.txt: %s, sitemap: %s", robots, presence(c.Sitemap))
}

// StructuredDataDepth returns the largest number of properties in one
// JSON-LD object, not counting JSON-LD keywords such as @type.
func StructuredDataDepth(items []map[string]any) int {
	deepest := 0
	for _, item := range items {
		n := 0
		for key := range item {
			if !strings.HasPrefix(key, "@") {
				n++
			}
		}
		deepest = max(deepest, n)
	}
	return deepest
}

// MetaCompleteness counts title, description, canonical, og:title,
// og:description and lang, and names the missing ones.
func MetaCompleteness(doc *goquery.Document) (int, []string) {
	items := []struct {
		name string
		ok   bool
	}{
		{"title", strings.TrimSpace(doc.Find("title").First().Text()) != ""},
		{"description", signals.Meta(doc, "description") != ""},
		{"canonical", strings.TrimSpace(doc.Find(`link[rel~="canonical"]`).First().AttrOr("href", "")) != ""},
		{"og:title", signals.Meta(doc, "og:title") != ""},
		{"og:description", signals.Meta(doc, "og:description") != ""},
		{"lang", strings.TrimSpace(doc.Find("html").First().AttrOr("lang", "")) != ""},
	}
	have := 0
	var missing []string
	for _, item := range items {
		if item.ok {
			have++
		} else {
			missing = append(missing, item.name)
		}
	}
	return have, missing
}

// ParseUpdated parses the Updated header.
func ParseUpdated(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range updatedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
