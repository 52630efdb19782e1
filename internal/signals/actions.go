package signals

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/model"
)

// actionElements are the call-to-action candidates, in document order.
const actionElements = `button, input[type=submit], input[type=button], a[role=button], ` +
	`a[class*=btn], a[class*=button], a[class*=cta], [class*=cta] a`

// actionPattern maps label text to an action in the closed vocabulary.
type actionPattern struct {
	pattern     *regexp.Regexp
	name        string
	description string
}

// actionPatterns are tried in order; the first match labels the element.
var actionPatterns = []actionPattern{
	{regexp.MustCompile(`(?i)\badd to (cart|bag|basket)\b`), "add_to_cart", "Add the product to the shopping cart"},
	{regexp.MustCompile(`(?i)\b(get|buy) tickets?\b`), "get_tickets", "Buy event tickets"},
	{regexp.MustCompile(`(?i)\b(buy|order|shop) now\b|\bbuy\b`), "buy_now", "Purchase the product"},
	{regexp.MustCompile(`(?i)\b(check ?out|proceed to payment)\b`), "checkout", "Complete the purchase"},
	{regexp.MustCompile(`(?i)\b(free trial|start (a |your )?trial|try (it )?(for )?free)\b`), "start_trial", "Start a free trial"},
	{regexp.MustCompile(`(?i)\b(request|book|schedule|get) a demo\b`), "request_demo", "Request a product demo"},
	{regexp.MustCompile(`(?i)\b(book|reserve)( now| a table| a room| online)?\b`), "book_now", "Make a booking or reservation"},
	{regexp.MustCompile(`(?i)\bschedule\b|\bmake an appointment\b`), "schedule", "Schedule an appointment"},
	{regexp.MustCompile(`(?i)\b(subscribe|get the newsletter)\b`), "subscribe", "Subscribe to updates"},
	{regexp.MustCompile(`(?i)\b(sign ?up|create (an |your )?account|join (now|free|us))\b`), "sign_up", "Create an account"},
	{regexp.MustCompile(`(?i)\b(log ?in|sign ?in)\b`), "log_in", "Sign in to an existing account"},
	{regexp.MustCompile(`(?i)\b(register|rsvp)\b`), "register", "Register for an event"},
	{regexp.MustCompile(`(?i)\b(get|request) a (quote|price)\b`), "get_quote", "Request a price quote"},
	{regexp.MustCompile(`(?i)\b(contact( us| sales)?|get in touch)\b`), "contact", "Contact the organization"},
	{regexp.MustCompile(`(?i)\bcall( us| now)\b`), "call", "Call by phone"},
	{regexp.MustCompile(`(?i)\b(donate|give now)\b`), "donate", "Make a donation"},
	{regexp.MustCompile(`(?i)\bapply( now| today)?\b`), "apply", "Submit an application"},
	{regexp.MustCompile(`(?i)\bdownload\b`), "download", "Download a file or app"},
	{regexp.MustCompile(`(?i)\b(install|add to (chrome|firefox|slack))\b`), "install", "Install the software"},
	{regexp.MustCompile(`(?i)\b(get started|start now|start building)\b`), "get_started", "Begin onboarding"},
	{regexp.MustCompile(`(?i)\b(watch|play)( the)?( video| demo| now)?\b`), "watch_video", "Watch a video"},
	{regexp.MustCompile(`(?i)\bcompare\b`), "compare", "Compare products or plans"},
	{regexp.MustCompile(`(?i)\bsearch\b`), "search", "Search the site"},
	{regexp.MustCompile(`(?i)\b(send( message)?|submit)\b`), "submit_form", "Submit a form"},
	{regexp.MustCompile(`(?i)\b(learn|read|see) more\b`), "learn_more", "Read more about the topic"},
}

// Actions returns the user actions the page offers, at most one per name and
// at most model.MaxActions in total.
func Actions(doc *goquery.Document) []model.ActionItem {
	actions := make([]model.ActionItem, 0)
	seen := make(map[string]bool)

	doc.Find(actionElements).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := actionLabel(s)
		if label == "" {
			return true
		}
		for _, p := range actionPatterns {
			if !p.pattern.MatchString(label) {
				continue
			}
			if !seen[p.name] {
				seen[p.name] = true
				actions = append(actions, model.ActionItem{Name: p.name, Description: p.description})
			}
			break
		}
		return len(actions) < model.MaxActions
	})
	return actions
}

func actionLabel(s *goquery.Selection) string {
	for _, candidate := range []string{s.Text(), s.AttrOr("aria-label", ""), s.AttrOr("value", ""), s.AttrOr("title", "")} {
		if c := htmldoc.CollapseSpace(candidate); c != "" {
			return c
		}
	}
	return ""
}
