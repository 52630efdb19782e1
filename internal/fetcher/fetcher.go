package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/model"
)

// Default limits of a direct fetch.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBodySize = 1 << 20
	DefaultMinBodySize = 500
	DefaultUserAgent   = "pagescope/1.0 (+https://github.com/nao1215/pagescope)"
)

// Kind tags how a page was obtained.
type Kind int

const (
	// KindFailed means neither the direct request nor the fallback produced a page.
	KindFailed Kind = iota
	// KindDirect means the origin served the page.
	KindDirect
	// KindFallback means the page was read through the fallback transport.
	KindFallback
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Result is the outcome of a Fetch.
type Result struct {
	Kind Kind

	// HTML is the page body, truncated to the size ceiling.
	HTML string

	// FinalURL is the post-redirect URL for direct fetches and the requested
	// URL for fallback fetches.
	FinalURL string

	// StatusCode is the origin status code of the direct attempt, 0 when no
	// response was received.
	StatusCode int

	// Via is one of model.FetchedViaDirect, FetchedViaReader, FetchedViaBrowser.
	Via string

	// Err is set when Kind is KindFailed. It is always an *errs.AppError.
	Err error
}

// UsedFallback reports whether the fallback transport produced the page.
func (r Result) UsedFallback() bool {
	return r.Kind == KindFallback
}

// Transport is an alternate way to obtain a page's HTML.
type Transport interface {
	// Name is one of model.FetchedViaReader or model.FetchedViaBrowser.
	Name() string
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// HeaderFunc returns extra request headers for a host.
type HeaderFunc func(host string) http.Header

// Fetcher retrieves pages directly and falls back once to a Transport.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	maxBodySize  int64
	minBodySize  int
	fallback     Transport
	headers      HeaderFunc
	allowPrivate bool
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the declared User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTimeout sets the timeout of each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithMaxBodySize sets the body size ceiling.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithMinBodySize sets the body size below which the fallback is tried.
func WithMinBodySize(size int) Option {
	return func(f *Fetcher) {
		f.minBodySize = size
	}
}

// WithFallback sets the fallback transport. A nil transport disables the fallback.
func WithFallback(t Transport) Option {
	return func(f *Fetcher) {
		f.fallback = t
	}
}

// WithHeaderFunc adds per-host request headers.
func WithHeaderFunc(fn HeaderFunc) Option {
	return func(f *Fetcher) {
		f.headers = fn
	}
}

// WithPrivateNetworkAccess disables the private-address guard.
// It exists for tests against local servers.
func WithPrivateNetworkAccess() Option {
	return func(f *Fetcher) {
		f.allowPrivate = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		minBodySize: DefaultMinBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = NewSafeClient(f.allowPrivate)
	return f
}

// AllowsPrivateNetworks reports whether the private-address guard is off.
func (f *Fetcher) AllowsPrivateNetworks() bool {
	return f.allowPrivate
}

// Client returns the guarded HTTP client, for probes that must follow the
// same network rules.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch retrieves rawURL. Input errors are returned without any network
// call. Otherwise a direct attempt is made, and when it fails or its body is
// shorter than the minimum viable size the fallback transport is tried once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	u, err := f.validate(rawURL)
	if err != nil {
		return Result{Kind: KindFailed, FinalURL: rawURL, Err: errs.New(errs.InvalidInput, err.Error(), err)}
	}
	target := u.String()

	direct, directErr := f.direct(ctx, target, u.Hostname())
	if directErr == nil && len(direct.HTML) >= f.minBodySize {
		return direct
	}
	if directErr != nil && errs.Is(directErr, errs.InvalidInput) {
		return Result{Kind: KindFailed, FinalURL: target, StatusCode: direct.StatusCode, Err: directErr}
	}

	if f.fallback == nil {
		if directErr != nil {
			return Result{Kind: KindFailed, FinalURL: target, StatusCode: direct.StatusCode, Err: directErr}
		}
		return direct
	}

	f.logger.Debug("trying fallback transport",
		"url", target,
		"transport", f.fallback.Name(),
		"direct_bytes", len(direct.HTML),
		"direct_error", errString(directErr))

	fbCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	html, fbErr := f.fallback.Fetch(fbCtx, target)
	if fbErr == nil && html == "" {
		fbErr = ErrEmptyBody
	}
	if fbErr != nil {
		f.logger.Warn("fallback transport failed", "url", target, "transport", f.fallback.Name(), "error", fbErr)
		if directErr == nil {
			return direct
		}
		return Result{Kind: KindFailed, FinalURL: target, StatusCode: direct.StatusCode, Err: classify(fbErr, 0)}
	}

	if int64(len(html)) > f.maxBodySize {
		html = html[:f.maxBodySize]
	}
	return Result{
		Kind:       KindFallback,
		HTML:       html,
		FinalURL:   target,
		StatusCode: direct.StatusCode,
		Via:        f.fallback.Name(),
	}
}

func (f *Fetcher) validate(rawURL string) (*url.URL, error) {
	if f.allowPrivate {
		return parseHTTPURL(rawURL)
	}
	return ValidateURL(rawURL)
}

// direct performs the primary request. A non-nil error is an *errs.AppError.
func (f *Fetcher) direct(ctx context.Context, target, host string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, errs.New(errs.InvalidInput, "failed to create request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if f.headers != nil {
		for key, values := range f.headers(host) {
			req.Header.Del(key)
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{StatusCode: resp.StatusCode}, errs.New(errs.Unreachable,
			fmt.Sprintf("origin returned status %d", resp.StatusCode), nil).WithUpstreamStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, classify(err, resp.StatusCode)
	}

	f.logger.Debug("fetched page", "url", target, "final_url", resp.Request.URL.String(),
		"status", resp.StatusCode, "bytes", len(body))

	return Result{
		Kind:       KindDirect,
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Via:        model.FetchedViaDirect,
	}, nil
}

// classify maps a transport error onto the error taxonomy.
func classify(err error, status int) *errs.AppError {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrBlockedAddress), errors.Is(err, ErrBlockedRedirect):
		return errs.New(errs.InvalidInput, "destination is not allowed", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return errs.New(errs.Timeout, "request timed out", err)
	default:
		return errs.New(errs.Unreachable, "failed to fetch page", err).WithUpstreamStatus(status)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
