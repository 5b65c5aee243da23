// Package browser renders marketplace search pages in a headless browser and
// returns the resulting DOM as HTML.
package browser

import (
	"context"
	"fmt"
	"time"

	"comps-scraper/config"
	"comps-scraper/utils"
)

// Renderer loads url, optionally waits for a CSS selector to appear, and
// returns the page's outer HTML. Each call owns its page and releases it
// before returning.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string) (string, error)
	Close() error
}

// New starts the engine named by cfg.BrowserEngine, behind a robots.txt gate
// when cfg.RobotsObey is set.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Renderer, error) {
	opts := Options{
		UserAgent:   config.UserAgent,
		ChromeBin:   cfg.ChromeBin,
		PageTimeout: cfg.PageTimeout,
		WaitTimeout: cfg.WaitTimeout,
	}
	if opts.ChromeBin == "" {
		opts.ChromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using %s with browser binary: %s", cfg.BrowserEngine, orDefault(opts.ChromeBin, "(auto)"))

	var (
		r   Renderer
		err error
	)
	switch cfg.BrowserEngine {
	case config.EngineChromedp:
		r, err = NewChromedp(ctx, opts)
	case config.EngineRod:
		r, err = NewRod(opts)
	default:
		return nil, fmt.Errorf("browser: unknown engine %q", cfg.BrowserEngine)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RobotsObey {
		r = NewRobots(r, config.UserAgent, logger)
	}
	return r, nil
}

// Options configures a browser engine.
type Options struct {
	UserAgent   string
	ChromeBin   string
	PageTimeout time.Duration
	WaitTimeout time.Duration
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
