package htmldoc

import (
	"net/url"
	"strings"
)

// skippedSchemes never point at a fetchable page.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "sms:", "ftp:"}

// ResolveURL resolves href against base and strips its fragment.
// It returns nil for empty, fragment-only and non-navigational hrefs.
func ResolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return nil
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := u
	if base != nil {
		resolved = base.ResolveReference(u)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved
}

// NormalizeURL lower-cases scheme and host, drops the fragment and turns an
// empty path into "/", so that equivalent URLs compare equal.
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" {
		n.Path = "/"
	}
	return n.String()
}

// SameSite reports whether a and b share a hostname, ignoring case and a
// leading "www.".
func SameSite(a, b *url.URL) bool {
	return bareHost(a) == bareHost(b)
}

func bareHost(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// PathAndQuery returns the path plus query of u, "/" for an empty path.
func PathAndQuery(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
