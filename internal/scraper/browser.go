package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher loads pages in headless Chrome so that listings rendered
// client-side are present in the returned HTML. It needs a local Chrome or
// Chromium binary.
type BrowserFetcher struct {
	Timeout   time.Duration
	UserAgent string
	// Settle is how long to wait after the body is ready for scripts to render
	Settle time.Duration
}

// NewBrowserFetcher creates a browser-backed fetcher
func NewBrowserFetcher(timeout time.Duration, userAgent string) *BrowserFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = UserAgent
	}
	return &BrowserFetcher{Timeout: timeout, UserAgent: userAgent, Settle: 2 * time.Second}
}

func (b *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(b.UserAgent),
		chromedp.WindowSize(1280, 900),
	)
}

// Fetch implements Fetcher. Each call starts its own browser so concurrent
// fetches do not share tabs; the status is always 200 when navigation succeeds.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (int, []byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.Timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("rendering page: %w", err)
	}
	return http.StatusOK, []byte(html), nil
}
