package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Chromedp renders pages in tabs of a single headless Chrome process.
type Chromedp struct {
	browserCtx  context.Context
	cancel      context.CancelFunc
	pageTimeout time.Duration
	waitTimeout time.Duration
}

// NewChromedp starts the browser process. It lives until Close.
func NewChromedp(ctx context.Context, opts Options) (*Chromedp, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ChromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions launches the browser so startup errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("chromedp: start browser: %w", err)
	}

	return &Chromedp{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		pageTimeout: opts.PageTimeout,
		waitTimeout: opts.WaitTimeout,
	}, nil
}

// Render opens a new tab, loads url and returns the document HTML.
func (c *Chromedp) Render(ctx context.Context, url, waitSelector string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.pageTimeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if waitSelector != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, c.waitTimeout)
			defer cancel()
			if err := chromedp.WaitReady(waitSelector, chromedp.ByQuery).Do(waitCtx); err != nil {
				return fmt.Errorf("wait for %s: %w", waitSelector, err)
			}
			return nil
		}))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp: render %s: %w", url, err)
	}
	return html, nil
}

func (c *Chromedp) Close() error {
	c.cancel()
	return nil
}
