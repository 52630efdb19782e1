package fetcher

import "errors"

var (
	// ErrInvalidURL is returned when the URL cannot be parsed or has no host.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnsupportedScheme is returned for schemes other than http and https.
	ErrUnsupportedScheme = errors.New("only http and https urls are supported")

	// ErrBlockedHost is returned when the host names a private, loopback or
	// link-local destination.
	ErrBlockedHost = errors.New("host is not allowed")

	// ErrBlockedAddress is returned when a host resolves to a private or
	// reserved address at dial time.
	ErrBlockedAddress = errors.New("request to private/reserved network address is not allowed")

	// ErrTooManyRedirects is returned when the redirect chain is too long.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBlockedRedirect is returned when a redirect leaves http(s) or points
	// at a blocked host.
	ErrBlockedRedirect = errors.New("redirect target blocked")

	// ErrEmptyBody is returned by a fallback transport that produced nothing.
	ErrEmptyBody = errors.New("empty response body")
)
