package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Rod renders pages with go-rod, each page patched by the stealth script.
type Rod struct {
	browser     *rod.Browser
	launcher    *launcher.Launcher
	userAgent   string
	pageTimeout time.Duration
	waitTimeout time.Duration
}

// NewRod launches a headless browser and connects to it.
func NewRod(opts Options) (*Rod, error) {
	l := launcher.New().
		Headless(true).
		Set("user-agent", opts.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage")
	if opts.ChromeBin != "" {
		l = l.Bin(opts.ChromeBin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("rod: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("rod: connect: %w", err)
	}

	return &Rod{
		browser:     b,
		launcher:    l,
		userAgent:   opts.UserAgent,
		pageTimeout: opts.PageTimeout,
		waitTimeout: opts.WaitTimeout,
	}, nil
}

// Render opens a stealth page, loads url and returns the document HTML.
func (r *Rod) Render(ctx context.Context, url, waitSelector string) (string, error) {
	page, err := stealth.Page(r.browser)
	if err != nil {
		return "", fmt.Errorf("rod: open page: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}); err != nil {
		return "", fmt.Errorf("rod: set user agent: %w", err)
	}

	p := page.Context(ctx).Timeout(r.pageTimeout)

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("rod: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("rod: load %s: %w", url, err)
	}
	if waitSelector != "" {
		if _, err := p.Timeout(r.waitTimeout).Element(waitSelector); err != nil {
			return "", fmt.Errorf("rod: wait for %s: %w", waitSelector, err)
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("rod: read html: %w", err)
	}
	return html, nil
}

func (r *Rod) Close() error {
	err := r.browser.Close()
	r.launcher.Kill()
	return err
}
