package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"comps-scraper/browser"
	"comps-scraper/metrics"
	"comps-scraper/models"
	"comps-scraper/utils"
)

// Enricher derives features and similarity scores for listings.
type Enricher interface {
	ExtractFeatures(ctx context.Context, title, description, brand string) models.Features
	CalculateSimilarity(ctx context.Context, query, listing models.Features) float64
	GenerateSearchQueries(ctx context.Context, item models.Features) []string
}

// Sink receives every emitted listing exactly once.
type Sink interface {
	Process(ctx context.Context, l *models.Listing) error
}

// Options describe what one crawl searches for.
type Options struct {
	Query string
	// Features of the reference item; empty means every row is emitted with score 1.0.
	Features  models.Features
	Threshold float64
}

// Stats counts what happened during Run.
type Stats struct {
	Queries     int
	PagesFailed int
	Rows        int
	RowsSkipped int
	Emitted     int
	Filtered    int
}

// Result is returned by Run.
type Result struct {
	Stats    Stats
	Listings []*models.Listing
}

// Spider crawls one marketplace for one query or reference item.
type Spider struct {
	site     Site
	renderer browser.Renderer
	agent    Enricher
	sink     Sink
	pool     *utils.WorkerPool
	metrics  *metrics.Crawl
	logger   *utils.Logger
	opts     Options

	mu     sync.Mutex
	result Result
}

// NewSpider wires a Spider. The caller owns renderer, sink and pool.
func NewSpider(site Site, renderer browser.Renderer, agent Enricher, sink Sink, pool *utils.WorkerPool,
	m *metrics.Crawl, logger *utils.Logger, opts Options) *Spider {
	return &Spider{
		site:     site,
		renderer: renderer,
		agent:    agent,
		sink:     sink,
		pool:     pool,
		metrics:  m,
		logger:   logger.With("marketplace", site.Marketplace().String()),
		opts:     opts,
	}
}

// Queries returns the search strings to run: model-generated ones when a
// reference item is given, else the raw query.
func (s *Spider) Queries(ctx context.Context) []string {
	raw := strings.TrimSpace(s.opts.Query)

	if !s.opts.Features.Empty() {
		if generated := s.agent.GenerateSearchQueries(ctx, s.opts.Features); len(generated) > 0 {
			return generated
		}
		if raw == "" {
			s.logger.Warn("[spider] No generated queries and no fallback query")
			return nil
		}
		s.logger.Warn("[spider] No generated queries, falling back to %q", raw)
	}
	if raw == "" {
		return nil
	}
	return []string{raw}
}

// Run crawls every query and returns once all pages have been processed or
// ctx is done.
func (s *Spider) Run(ctx context.Context) (*Result, error) {
	queries := s.Queries(ctx)
	if len(queries) == 0 {
		s.logger.Warn("[spider] Nothing to search for: no query and no generated queries")
		return &Result{}, nil
	}

	s.logger.Info("[spider] Starting crawl with %d queries", len(queries))
	host := hostOf(s.site.SearchURL(queries[0]))

	s.mu.Lock()
	s.result.Stats.Queries = len(queries)
	s.mu.Unlock()

	for _, q := range queries {
		if !s.pool.Submit(ctx, host, func(ctx context.Context) { s.crawlQuery(ctx, q) }) {
			break
		}
	}
	s.pool.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.result
	st := res.Stats
	s.logger.Info("[spider] Crawl finished: %d rows, %d skipped, %d filtered, %d emitted, %d pages failed",
		st.Rows, st.RowsSkipped, st.Filtered, st.Emitted, st.PagesFailed)

	if err := ctx.Err(); err != nil {
		return &res, err
	}
	return &res, nil
}

func (s *Spider) crawlQuery(ctx context.Context, query string) {
	m := s.site.Marketplace().String()
	target := s.site.SearchURL(query)
	s.logger.Info("[spider] Searching %q: %s", query, target)

	start := time.Now()
	html, err := s.renderer.Render(ctx, target, s.site.WaitSelector())
	s.metrics.PageRendered(m, err, time.Since(start))
	if err != nil {
		if errors.Is(err, browser.ErrDisallowed) {
			s.logger.Warn("[spider] Skipping %s: %v", target, err)
		} else {
			s.logger.Error("[spider] Error rendering %s: %v", target, err)
		}
		s.count(func(st *Stats) { st.PagesFailed++ })
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Error("[spider] Error parsing %s: %v", target, err)
		s.count(func(st *Stats) { st.PagesFailed++ })
		return
	}

	rows := s.site.ParseRows(doc, query)
	s.logger.Debug("[spider] %q returned %d rows", query, len(rows))

	for _, row := range rows {
		if ctx.Err() != nil {
			return
		}
		s.count(func(st *Stats) { st.Rows++ })

		if row.Err != nil {
			s.logger.Warn("[spider] Error parsing item: %v", row.Err)
			s.metrics.Row(m, metrics.RowSkipped)
			s.count(func(st *Stats) { st.RowsSkipped++ })
			continue
		}
		s.processRow(ctx, row.Listing)
	}
}

func (s *Spider) processRow(ctx context.Context, l *models.Listing) {
	m := s.site.Marketplace().String()

	features := s.agent.ExtractFeatures(ctx, l.Title, l.Description, l.Brand)
	l.AIFeatures = features
	if l.Brand == "" {
		l.Brand = features.String("brand_clean")
	}
	if l.Size == "" {
		l.Size = features.String("size_normalized")
	}
	if l.Category == "" {
		l.Category = features.String("category")
	}

	score := 1.0
	if !s.opts.Features.Empty() {
		score = s.agent.CalculateSimilarity(ctx, s.opts.Features, features)
	}
	l.SimilarityScore = models.Float64(score)

	if !s.opts.Features.Empty() && score <= s.opts.Threshold {
		s.logger.Debug("[spider] Filtered %q: similarity %.2f <= %.2f", l.Title, score, s.opts.Threshold)
		s.metrics.Row(m, metrics.RowFiltered)
		s.count(func(st *Stats) { st.Filtered++ })
		return
	}

	// Storage failures are logged by the sink; the row still counts as emitted.
	_ = s.sink.Process(ctx, l)
	s.metrics.Row(m, metrics.RowEmitted)

	s.mu.Lock()
	s.result.Stats.Emitted++
	s.result.Listings = append(s.result.Listings, l)
	s.mu.Unlock()
}

func (s *Spider) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.result.Stats)
	s.mu.Unlock()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}
