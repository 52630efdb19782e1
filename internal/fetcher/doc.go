// Package fetcher retrieves raw HTML for untrusted URLs.
//
// Every request is guarded against server-side request forgery twice: the
// host is checked before any network call, and the resolved address is
// checked again at dial time. When the origin cannot be read directly, or
// returns a body too small to be a real page, the Fetcher makes exactly one
// attempt through a fallback Transport (a remote reader service or a
// headless browser) and tags the Result accordingly.
package fetcher
