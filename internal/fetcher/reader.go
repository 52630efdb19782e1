package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nao1215/pagescope/internal/model"
)

// DefaultReaderEndpoint is the remote reader service used by ReaderTransport.
const DefaultReaderEndpoint = "https://r.jina.ai/"

// ReaderTransport reads a page through a remote reader service that
// renders it on the caller's behalf. The target URL is appended to the
// endpoint.
type ReaderTransport struct {
	endpoint    string
	apiKey      string
	userAgent   string
	maxBodySize int64
	client      *http.Client
}

// ReaderOption configures a ReaderTransport.
type ReaderOption func(*ReaderTransport)

// WithReaderAPIKey sets the bearer token sent to the reader service.
func WithReaderAPIKey(key string) ReaderOption {
	return func(r *ReaderTransport) {
		r.apiKey = key
	}
}

// WithReaderClient replaces the HTTP client used to call the reader service.
func WithReaderClient(client *http.Client) ReaderOption {
	return func(r *ReaderTransport) {
		r.client = client
	}
}

// WithReaderUserAgent sets the User-Agent sent to the reader service.
func WithReaderUserAgent(ua string) ReaderOption {
	return func(r *ReaderTransport) {
		r.userAgent = ua
	}
}

// NewReaderTransport creates a ReaderTransport for endpoint. An empty
// endpoint selects DefaultReaderEndpoint.
func NewReaderTransport(endpoint string, opts ...ReaderOption) *ReaderTransport {
	if endpoint == "" {
		endpoint = DefaultReaderEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	r := &ReaderTransport{
		endpoint:    endpoint,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		client:      &http.Client{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns model.FetchedViaReader.
func (r *ReaderTransport) Name() string {
	return model.FetchedViaReader
}

// Fetch asks the reader service for the rendered HTML of rawURL.
func (r *ReaderTransport) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create reader request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("X-Return-Format", "html")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read reader response: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", ErrEmptyBody
	}
	return string(body), nil
}
