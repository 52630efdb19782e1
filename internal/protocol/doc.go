// Package protocol detects whether a site serves a Markdown representation
// of its pages through HTTP content negotiation.
//
// A Prober sends requests with "Accept: text/<name>+markdown" and reads the
// X-<Name>-* response headers plus the leading frontmatter block of the
// body. A Discoverer checks the site-level documents: /llms.txt, the
// well-known JSON document, robots.txt and sitemaps.
//
// Probes never return errors. Network failures and timeouts degrade to
// absent fields, because a site that does not answer is a valid, scoreable
// outcome.
package protocol
