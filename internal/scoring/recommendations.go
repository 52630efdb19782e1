package scoring

import (
	"slices"
	"strings"

	"github.com/nao1215/pagescope/internal/model"
	"github.com/nao1215/pagescope/internal/protocol"
)

// advice is the recommendation attached to a failed check.
type advice struct {
	impact  int
	message string
}

// adviceMapping maps check IDs to their recommendation. Checks without an
// entry produce no recommendation. Messages may reference {media},
// {version_header}, {updated_header}, {well_known} and {llms_txt}.
var adviceMapping = map[string]advice{
	CheckProtocolServed: {
		impact:  10,
		message: "Answer requests with Accept: {media} with a Markdown representation and a {version_header} header.",
	},
	CheckProtocolContentType: {
		impact:  5,
		message: "Serve the Markdown representation with Content-Type: {media}.",
	},
	CheckDiscoveryLink: {
		impact:  6,
		message: `Add <link rel="alternate" type="{media}" href="..."> to the page head so agents can find the Markdown version.`,
	},
	CheckDiscoveryFiles: {
		impact:  4,
		message: "Publish {llms_txt} or {well_known} to describe the site to agents.",
	},
	CheckContentRatio: {
		impact:  7,
		message: "Reduce markup, inline scripts and styles so that readable content makes up more of the page.",
	},
	CheckNoRenderFallback: {
		impact:  9,
		message: "Render the main content on the server; the page could not be read without a rendering service.",
	},
	CheckContentEarly: {
		impact:  4,
		message: "Move the main content closer to the top of the HTML, ahead of navigation and widgets.",
	},
	CheckHeadingStructure: {
		impact:  5,
		message: "Use exactly one h1 and organize sections with h2 and h3 headings.",
	},
	CheckSemanticMarkup: {
		impact:  3,
		message: "Wrap content in semantic elements such as main, article, section and nav.",
	},
	CheckImageAlt: {
		impact:  3,
		message: "Give every meaningful image a descriptive alt attribute, and alt=\"\" to decorative ones.",
	},
	CheckLinkText: {
		impact:  2,
		message: "Replace generic link text such as \"click here\" or \"read more\" with text that names the target.",
	},
	CheckStructuredData: {
		impact:  8,
		message: "Describe the page with JSON-LD structured data using a schema.org type.",
	},
	CheckMetaCompleteness: {
		impact:  6,
		message: "Complete the page metadata: title, meta description, canonical link, og:title, og:description and html lang.",
	},
	CheckCrawlControl: {
		impact:  5,
		message: "Publish a robots.txt that allows crawling and reference a sitemap from it.",
	},
	CheckProtocolFreshness: {
		impact:  3,
		message: "Send an {updated_header} header with the last modification time and keep it current.",
	},
	CheckSummaryQuality: {
		impact:  4,
		message: "Add a summary of 50 to 160 characters to the frontmatter of the Markdown representation.",
	},
	CheckDeclaredActions: {
		impact:  6,
		message: "Declare the actions an agent can take on this page in the frontmatter actions list.",
	},
	CheckActionCompleteness: {
		impact:  3,
		message: "Give every declared action a name, a description and a url.",
	},
	CheckDeclaredLinks: {
		impact:  3,
		message: "List at least three related pages under links.internal in the frontmatter.",
	},
	CheckHeaderCompleteness: {
		impact:  4,
		message: "Send the full set of protocol headers: version, type, language, entity, tokens, updated and canonical.",
	},
	CheckExtractableContent: {
		impact:  5,
		message: "Add more readable text content; the page yields little text once boilerplate is removed.",
	},
}

// Recommend returns one recommendation per failed check with an advice
// entry, sorted by impact descending. Equal impacts keep evaluation order.
func Recommend(categories []model.ScoreCategory, n protocol.Negotiation) []model.Recommendation {
	replacer := strings.NewReplacer(
		"{media}", n.MediaType(),
		"{version_header}", n.Header(protocol.FieldVersion),
		"{updated_header}", n.Header(protocol.FieldUpdated),
		"{well_known}", n.WellKnownPath(),
		"{llms_txt}", protocol.LLMsTxtPath,
	)

	recs := make([]model.Recommendation, 0)
	for _, category := range categories {
		for _, check := range category.FailedChecks() {
			a, ok := adviceMapping[check.ID]
			if !ok {
				continue
			}
			recs = append(recs, model.Recommendation{
				CheckID:  check.ID,
				Category: category.Name,
				Impact:   a.impact,
				Message:  replacer.Replace(a.message),
			})
		}
	}
	slices.SortStableFunc(recs, func(a, b model.Recommendation) int {
		return b.Impact - a.Impact
	})
	return recs
}
