package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"comps-scraper/utils"
)

// ErrDisallowed is returned when robots.txt forbids the requested path.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Robots gates a Renderer on each host's robots.txt, fetched once per host.
type Robots struct {
	next      Renderer
	userAgent string
	client    *http.Client
	logger    *utils.Logger

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

// NewRobots wraps next.
func NewRobots(next Renderer, userAgent string, logger *utils.Logger) *Robots {
	return &Robots{
		next:      next,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
		hosts:     make(map[string]*robotstxt.Group),
	}
}

// Render refuses urls whose path the host disallows and delegates the rest.
func (r *Robots) Render(ctx context.Context, rawURL, waitSelector string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("robots: parse %s: %w", rawURL, err)
	}

	group := r.group(ctx, u)
	if group != nil && !group.Test(u.RequestURI()) {
		return "", fmt.Errorf("robots: %s: %w", rawURL, ErrDisallowed)
	}
	return r.next.Render(ctx, rawURL, waitSelector)
}

func (r *Robots) Close() error {
	r.client.CloseIdleConnections()
	return r.next.Close()
}

// group returns the rules for u's host, or nil when everything is allowed.
func (r *Robots) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.hosts[u.Host]; ok {
		return g
	}

	g, err := r.fetch(ctx, u.Scheme+"://"+u.Host+"/robots.txt")
	if err != nil {
		r.logger.Warn("[robots] %s/robots.txt unavailable, allowing all: %v", u.Host, err)
	}
	r.hosts[u.Host] = g
	return g
}

func (r *Robots) fetch(ctx context.Context, robotsURL string) (*robotstxt.Group, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	return data.FindGroup(r.userAgent), nil
}
