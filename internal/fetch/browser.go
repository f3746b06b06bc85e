package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pokewonder/pokewonder/internal/models"
)

// BrowserFetcher renders pages in headless Chrome. Needed for storefronts
// that assemble the catalog client-side or sit behind a scripted waiting
// room; it observes the final URL after any queue redirect.
type BrowserFetcher struct {
	userAgent string
	settle    time.Duration
}

// NewBrowserFetcher creates a browser-backed fetcher. settle is how long to
// wait after navigation for client-side rendering before reading the DOM.
func NewBrowserFetcher(userAgent string, settle time.Duration) *BrowserFetcher {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &BrowserFetcher{userAgent: userAgent, settle: settle}
}

// Fetch navigates to the URL and returns the rendered document. The HTTP
// status is not observable through the high-level API, so a completed
// navigation is reported as ok; block walls are recognized downstream from
// the page text instead.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	cctx, cancelCtx := chromedp.NewContext(actx)
	defer cancelCtx()

	var html, finalURL string
	err := chromedp.Run(cctx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return &Result{
		FinalURL: finalURL,
		Status:   models.TransportOK,
		Body:     html,
	}, nil
}
