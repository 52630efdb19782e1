package fetcher

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/pagescope/internal/model"
)

// BrowserTransport renders a page in headless Chrome and returns the
// resulting DOM. It needs a Chrome or Chromium binary on the host.
type BrowserTransport struct {
	userAgent string
	execPath  string
}

// BrowserOption configures a BrowserTransport.
type BrowserOption func(*BrowserTransport)

// WithBrowserUserAgent sets the User-Agent of the headless browser.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(b *BrowserTransport) {
		b.userAgent = ua
	}
}

// WithBrowserExecPath sets the Chrome binary to launch.
func WithBrowserExecPath(path string) BrowserOption {
	return func(b *BrowserTransport) {
		b.execPath = path
	}
}

// NewBrowserTransport creates a BrowserTransport.
func NewBrowserTransport(opts ...BrowserOption) *BrowserTransport {
	b := &BrowserTransport{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns model.FetchedViaBrowser.
func (b *BrowserTransport) Name() string {
	return model.FetchedViaBrowser
}

func (b *BrowserTransport) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.userAgent),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	return opts
}

// Fetch navigates to rawURL and returns the outer HTML of the document.
// ctx bounds the browser's lifetime.
func (b *BrowserTransport) Fetch(ctx context.Context, rawURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser render failed: %w", err)
	}
	return html, nil
}
