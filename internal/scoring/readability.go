package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// Readability check IDs.
const (
	CheckContentRatio     = "content_ratio"
	CheckNoRenderFallback = "no_render_fallback"
	CheckContentEarly     = "content_early"
	CheckHeadingStructure = "heading_structure"
	CheckSemanticMarkup   = "semantic_markup"
	CheckImageAlt         = "image_alt"
	CheckLinkText         = "link_text"
)

var readabilityRules = struct {
	ratio, fallback, early, headings, semantic, alt, linkText rule
}{
	ratio: rule{
		id: CheckContentRatio, name: "Content to markup ratio", maxPoints: 8,
		scale: atLeast(0.5, 8, 0.35, 5, 0.2, 3), pass: passValueAtLeast(0.2),
	},
	fallback: rule{
		id: CheckNoRenderFallback, name: "Readable without rendering", maxPoints: 5,
		scale: atLeast(1, 5), pass: passAtMax,
	},
	early: rule{
		id: CheckContentEarly, name: "Content placed early", maxPoints: 4,
		scale: atMost(0.3, 4, 0.5, 2, 0.7, 1), pass: passEarned(2),
	},
	headings: rule{
		id: CheckHeadingStructure, name: "Heading structure", maxPoints: 4,
		scale: atLeast(3, 4, 2, 2, 1, 1), pass: passAtMax,
	},
	semantic: rule{
		id: CheckSemanticMarkup, name: "Semantic markup", maxPoints: 3,
		scale: atLeast(4, 3, 2, 2, 1, 1), pass: passEarned(2),
	},
	alt: rule{
		id: CheckImageAlt, name: "Image alt text", maxPoints: 3,
		scale: atLeast(0.9, 3, 0.7, 2, 0.5, 1), pass: passValueAtLeast(0.9),
	},
	linkText: rule{
		id: CheckLinkText, name: "Descriptive link text", maxPoints: 3,
		scale: atLeast(0.9, 3, 0.75, 2, 0.5, 1), pass: passValueAtLeast(0.75),
	},
}

// substantialParagraph is the shortest paragraph counted as real content.
const substantialParagraph = 40

// semanticElements are the HTML5 elements counted by the semantic markup check.
var semanticElements = []string{
	"main", "article", "section", "nav", "header", "footer", "aside",
	"figure", "figcaption", "time", "address", "details", "summary", "mark",
}

// genericLinkText are link labels that say nothing about the target.
var genericLinkText = map[string]bool{
	"click here": true, "here": true, "click": true, "more": true, "read more": true,
	"learn more": true, "link": true, "this": true, "this link": true, "go": true,
	"continue": true, "details": true, "more info": true, "info": true, "\u2026": true, "...": true,
}

type readability struct{}

func (r *readability) Category() string { return model.CategoryReadability }

func (r *readability) MaxPoints() int { return 30 }

func (r *readability) Evaluate(_ context.Context, in Input) []model.ScoreCheck {
	rules := readabilityRules
	page := in.Page
	doc := page.Document

	ratio := ContentRatio(page.Markdown, page.RawHTML)
	checks := []model.ScoreCheck{
		rules.ratio.evaluate(ratio, fmt.Sprintf("markdown is %.0f%% of the HTML size", ratio*100)),
		rules.fallback.evaluate(present(!page.UsedFallbackTransport), fallbackDetails(page)),
	}

	if doc == nil {
		for _, rl := range []rule{rules.early, rules.headings, rules.semantic, rules.alt, rules.linkText} {
			checks = append(checks, rl.missing("document not available"))
		}
		return checks
	}

	if offset, ok := ContentOffset(doc); ok {
		checks = append(checks, rules.early.evaluate(offset,
			fmt.Sprintf("first substantial paragraph starts at %.0f%% of the document", offset*100)))
	} else {
		checks = append(checks, rules.early.missing("no substantial paragraph found"))
	}

	h1, sub := HeadingCounts(doc)
	checks = append(checks, rules.headings.evaluate(headingLevel(h1, sub),
		fmt.Sprintf("%d h1, %d sub-headings", h1, sub)))

	semantic := SemanticElements(doc)
	checks = append(checks, rules.semantic.evaluate(float64(len(semantic)),
		"semantic elements: "+listOrNone(semantic)))

	coverage, images := ImageAltCoverage(doc)
	checks = append(checks, rules.alt.evaluate(coverage,
		fmt.Sprintf("%.0f%% of %d images have alt text", coverage*100, images)))

	descriptive, links := DescriptiveLinkRatio(doc)
	checks = append(checks, rules.linkText.evaluate(descriptive,
		fmt.Sprintf("%.0f%% of %d links have descriptive text", descriptive*100, links)))

	return checks
}

func fallbackDetails(page *model.PageData) string {
	if page.UsedFallbackTransport {
		return "page could only be read through the " + page.FetchedVia + " fallback"
	}
	return "page was readable with a plain HTTP request"
}

// headingLevel maps heading counts to 3 (one h1 and at least two
// sub-headings), 2 (exactly one h1), 1 (any heading) or 0.
func headingLevel(h1, sub int) float64 {
	switch {
	case h1 == 1 && sub >= 2:
		return 3
	case h1 == 1:
		return 2
	case h1+sub > 0:
		return 1
	default:
		return 0
	}
}

// ContentRatio returns the size of the Markdown relative to the HTML.
func ContentRatio(markdown, rawHTML string) float64 {
	if len(rawHTML) == 0 {
		return 0
	}
	return min(float64(len(markdown))/float64(len(rawHTML)), 1)
}

// ContentOffset returns where the first substantial paragraph of the main
// content begins, as a fraction of the serialized document. It returns
// false when the page has no such paragraph.
func ContentOffset(doc *goquery.Document) (float64, bool) {
	var para *goquery.Selection
	htmldoc.MainContent(doc).Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len([]rune(htmldoc.CollapseSpace(s.Text()))) >= substantialParagraph {
			para = s
			return false
		}
		return true
	})
	if para == nil {
		return 0, false
	}

	whole, err := goquery.OuterHtml(doc.Selection)
	if err != nil || whole == "" {
		return 0, false
	}
	fragment, err := goquery.OuterHtml(para)
	if err != nil {
		return 0, false
	}
	idx := strings.Index(whole, fragment)
	if idx < 0 {
		return 0, false
	}
	return float64(idx) / float64(len(whole)), true
}

// HeadingCounts returns the number of h1 elements and of h2-h6 elements.
func HeadingCounts(doc *goquery.Document) (h1, sub int) {
	return doc.Find("h1").Length(), doc.Find("h2, h3, h4, h5, h6").Length()
}

// SemanticElements returns the distinct semantic elements used by doc.
func SemanticElements(doc *goquery.Document) []string {
	found := make([]string, 0, len(semanticElements))
	for _, name := range semanticElements {
		if doc.Find(name).Length() > 0 {
			found = append(found, name)
		}
	}
	return found
}

// ImageAltCoverage returns the share of images carrying an alt attribute
// and the number of images. An empty alt marks a decorative image and
// counts as covered. A page without images has full coverage.
func ImageAltCoverage(doc *goquery.Document) (float64, int) {
	images := doc.Find("img")
	total := images.Length()
	if total == 0 {
		return 1, 0
	}
	covered := images.FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, ok := s.Attr("alt")
		return ok
	}).Length()
	return float64(covered) / float64(total), total
}

// DescriptiveLinkRatio returns the share of links whose label describes the
// target and the number of links. A page without links scores 1.
func DescriptiveLinkRatio(doc *goquery.Document) (float64, int) {
	links := doc.Find("a[href]")
	total := links.Length()
	if total == 0 {
		return 1, 0
	}
	descriptive := links.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isDescriptive(linkLabel(s))
	}).Length()
	return float64(descriptive) / float64(total), total
}

func linkLabel(s *goquery.Selection) string {
	if label := htmldoc.CollapseSpace(s.Text()); label != "" {
		return label
	}
	if label := strings.TrimSpace(s.AttrOr("aria-label", "")); label != "" {
		return label
	}
	return strings.TrimSpace(s.Find("img[alt]").First().AttrOr("alt", ""))
}

func isDescriptive(label string) bool {
	label = strings.ToLower(strings.Trim(label, " .:!\u00bb\u203a\u2192>"))
	return len([]rune(label)) >= 2 && !genericLinkText[label]
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
