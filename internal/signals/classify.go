package signals

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// ClassifyThreshold is the lowest winning weight that beats the generic type.
const ClassifyThreshold = 2

// pageFeatures is the precomputed view every classifier signal reads from.
type pageFeatures struct {
	doc     *goquery.Document
	schema  map[string]bool
	ogType  string
	path    string
	text    string
	classes string
}

// signal adds weight to a content type when match reports true.
type signal struct {
	name        string
	contentType model.ContentType
	weight      int
	match       func(f *pageFeatures) bool
}

var (
	pricePattern      = regexp.MustCompile(`[$€£¥]\s?\d|\d+[.,]\d{2}\s?(usd|eur|gbp)\b`)
	cartPattern       = regexp.MustCompile(`add to (cart|bag|basket)|in stock|out of stock`)
	ingredientPattern = regexp.MustCompile(`\bingredients\b`)
	stepsPattern      = regexp.MustCompile(`\b(instructions|directions|method|steps)\b`)
	cookTimePattern   = regexp.MustCompile(`\b(prep time|cook time|total time|servings|serves \d)\b`)
	ticketPattern     = regexp.MustCompile(`\b(tickets?|rsvp|register now|save your seat)\b`)
	venuePattern      = regexp.MustCompile(`\b(venue|location|doors open|agenda)\b`)
	bylinePattern     = regexp.MustCompile(`\b(byline|author|dateline)\b`)
	blogTextPattern   = regexp.MustCompile(`\b(posted (on|by)|leave a (comment|reply)|\d+ comments?)\b`)
	orgTextPattern    = regexp.MustCompile(`\b(our mission|our team|our story|founded in|who we are)\b`)
	docsPathPattern   = regexp.MustCompile(`(^|/)(docs?|documentation|reference|api|guides?|manual|handbook)(/|$)`)
	blogPathPattern   = regexp.MustCompile(`(^|/)(blog|posts?|journal)(/|$)`)
	orgPathPattern    = regexp.MustCompile(`(^|/)(about(-us)?|company|team|who-we-are)(/|$)`)
	newsPathPattern   = regexp.MustCompile(`(^|/)(news|articles?|stories)(/|$)|/\d{4}/\d{2}/`)
)

func hasSchema(f *pageFeatures, types ...string) bool {
	for _, t := range types {
		if f.schema[t] {
			return true
		}
	}
	return false
}

// classifierSignals is evaluated in full for every page; order does not affect the result.
var classifierSignals = []signal{
	{"schema_article", model.ContentTypeArticle, 3, func(f *pageFeatures) bool {
		return hasSchema(f, "article", "newsarticle", "reportagenewsarticle", "scholarlyarticle")
	}},
	{"og_article", model.ContentTypeArticle, 2, func(f *pageFeatures) bool { return f.ogType == "article" }},
	{"article_time", model.ContentTypeArticle, 1, func(f *pageFeatures) bool {
		return f.doc.Find("article time, article [itemprop=datePublished]").Length() > 0
	}},
	{"byline", model.ContentTypeArticle, 1, func(f *pageFeatures) bool { return bylinePattern.MatchString(f.classes) }},
	{"news_path", model.ContentTypeArticle, 1, func(f *pageFeatures) bool { return newsPathPattern.MatchString(f.path) }},

	{"schema_blog", model.ContentTypeBlogPost, 3, func(f *pageFeatures) bool { return hasSchema(f, "blogposting", "blog") }},
	{"blog_path", model.ContentTypeBlogPost, 2, func(f *pageFeatures) bool { return blogPathPattern.MatchString(f.path) }},
	{"blog_classes", model.ContentTypeBlogPost, 1, func(f *pageFeatures) bool {
		return strings.Contains(f.classes, "blog") || strings.Contains(f.classes, "post-")
	}},
	{"blog_text", model.ContentTypeBlogPost, 1, func(f *pageFeatures) bool { return blogTextPattern.MatchString(f.text) }},

	{"schema_docs", model.ContentTypeDocumentation, 3, func(f *pageFeatures) bool {
		return hasSchema(f, "techarticle", "apireference", "howto")
	}},
	{"docs_path", model.ContentTypeDocumentation, 2, func(f *pageFeatures) bool { return docsPathPattern.MatchString(f.path) }},
	{"code_blocks", model.ContentTypeDocumentation, 1, func(f *pageFeatures) bool { return f.doc.Find("pre").Length() >= 2 }},
	{"docs_navigation", model.ContentTypeDocumentation, 1, func(f *pageFeatures) bool {
		return strings.Contains(f.classes, "toc") || strings.Contains(f.classes, "docs") || strings.Contains(f.classes, "table-of-contents")
	}},

	{"schema_product", model.ContentTypeProduct, 3, func(f *pageFeatures) bool { return hasSchema(f, "product", "offer", "aggregateoffer") }},
	{"og_product", model.ContentTypeProduct, 2, func(f *pageFeatures) bool { return strings.HasPrefix(f.ogType, "product") }},
	{"price_and_cart", model.ContentTypeProduct, 2, func(f *pageFeatures) bool {
		return pricePattern.MatchString(f.text) && cartPattern.MatchString(f.text)
	}},
	{"product_classes", model.ContentTypeProduct, 1, func(f *pageFeatures) bool {
		return strings.Contains(f.classes, "price") || strings.Contains(f.classes, "product")
	}},

	{"schema_recipe", model.ContentTypeRecipe, 3, func(f *pageFeatures) bool { return hasSchema(f, "recipe") }},
	{"ingredients_and_steps", model.ContentTypeRecipe, 2, func(f *pageFeatures) bool {
		return ingredientPattern.MatchString(f.text) && stepsPattern.MatchString(f.text)
	}},
	{"cook_times", model.ContentTypeRecipe, 1, func(f *pageFeatures) bool { return cookTimePattern.MatchString(f.text) }},

	{"schema_event", model.ContentTypeEvent, 3, func(f *pageFeatures) bool {
		for t := range f.schema {
			if strings.HasSuffix(t, "event") {
				return true
			}
		}
		return false
	}},
	{"tickets", model.ContentTypeEvent, 1, func(f *pageFeatures) bool { return ticketPattern.MatchString(f.text) }},
	{"venue_and_time", model.ContentTypeEvent, 1, func(f *pageFeatures) bool {
		return venuePattern.MatchString(f.text) && f.doc.Find("time[datetime]").Length() > 0
	}},

	{"schema_faq", model.ContentTypeFAQ, 3, func(f *pageFeatures) bool { return hasSchema(f, "faqpage", "qapage") }},
	{"question_headings", model.ContentTypeFAQ, 2, func(f *pageFeatures) bool { return questionHeadings(f.doc) >= 3 }},
	{"faq_marker", model.ContentTypeFAQ, 1, func(f *pageFeatures) bool {
		return strings.Contains(f.path, "faq") || strings.Contains(f.classes, "faq") || strings.Contains(f.classes, "accordion")
	}},

	{"schema_organization", model.ContentTypeOrganization, 2, func(f *pageFeatures) bool {
		return hasSchema(f, "organization", "corporation", "localbusiness", "aboutpage", "ngo")
	}},
	{"about_path", model.ContentTypeOrganization, 2, func(f *pageFeatures) bool { return orgPathPattern.MatchString(f.path) }},
	{"org_text", model.ContentTypeOrganization, 1, func(f *pageFeatures) bool { return orgTextPattern.MatchString(f.text) }},

	{"root_path", model.ContentTypeLandingPage, 2, func(f *pageFeatures) bool { return f.path == "" || f.path == "/" }},
	{"hero_section", model.ContentTypeLandingPage, 1, func(f *pageFeatures) bool {
		return strings.Contains(f.classes, "hero") || strings.Contains(f.classes, "jumbotron")
	}},
	{"multiple_ctas", model.ContentTypeLandingPage, 1, func(f *pageFeatures) bool { return len(Actions(f.doc)) >= 2 }},
}

func questionHeadings(doc *goquery.Document) int {
	count := 0
	doc.Find("h2, h3, h4, dt, summary").Each(func(_ int, s *goquery.Selection) {
		if strings.HasSuffix(strings.TrimSpace(s.Text()), "?") {
			count++
		}
	})
	return count
}

// Classify returns the content type with the highest total signal weight.
// Ties go to the type declared first in model.ContentTypes. When the best
// weight is below ClassifyThreshold the page is a generic webpage.
func Classify(doc *goquery.Document, items []map[string]any, pageURL string) model.ContentType {
	f := newPageFeatures(doc, items, pageURL)

	weights := make(map[model.ContentType]int)
	for _, s := range classifierSignals {
		if s.match(f) {
			weights[s.contentType] += s.weight
		}
	}

	best, bestWeight := model.ContentTypeWebPage, 0
	for _, ct := range model.ContentTypes() {
		if weights[ct] > bestWeight {
			best, bestWeight = ct, weights[ct]
		}
	}
	if bestWeight < ClassifyThreshold {
		return model.ContentTypeWebPage
	}
	return best
}

// visibleText returns the lowercased main-content text without script and
// style bodies.
func visibleText(doc *goquery.Document) string {
	clone := htmldoc.Clone(doc)
	clone.Find("script, style, noscript, template").Remove()
	return strings.ToLower(htmldoc.CollapseSpace(htmldoc.MainContent(clone).Text()))
}

func newPageFeatures(doc *goquery.Document, items []map[string]any, pageURL string) *pageFeatures {
	f := &pageFeatures{
		doc:    doc,
		schema: make(map[string]bool),
		ogType: strings.ToLower(Meta(doc, "og:type")),
		text:   visibleText(doc),
	}
	for _, t := range SchemaTypes(items) {
		f.schema[t] = true
	}
	if u, err := url.Parse(pageURL); err == nil {
		f.path = strings.ToLower(u.Path)
	}

	var classes strings.Builder
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		classes.WriteString(s.AttrOr("class", ""))
		classes.WriteByte(' ')
		classes.WriteString(s.AttrOr("id", ""))
		classes.WriteByte(' ')
	})
	f.classes = strings.ToLower(classes.String())
	return f
}
