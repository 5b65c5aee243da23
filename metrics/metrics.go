// Package metrics counts what happened during one crawl run.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comps"

// Row outcomes.
const (
	RowEmitted  = "emitted"
	RowSkipped  = "skipped"
	RowFiltered = "filtered"
)

// Crawl holds the Prometheus collectors for a single crawl. A nil *Crawl is
// valid and records nothing.
type Crawl struct {
	registry *prometheus.Registry

	pages         *prometheus.CounterVec
	rows          *prometheus.CounterVec
	llmCalls      *prometheus.CounterVec
	inserts       *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Crawl {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Crawl{
		registry: reg,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Search result pages requested, by marketplace and result.",
		}, []string{"marketplace", "result"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Listing rows seen, by marketplace and outcome.",
		}, []string{"marketplace", "result"}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language model calls, by operation and result.",
		}, []string{"op", "result"}),
		inserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Listing inserts, by result.",
		}, []string{"result"}),
		renderSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time spent rendering a search page.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"marketplace"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Crawl) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// PageRendered records one page request.
func (c *Crawl) PageRendered(marketplace string, err error, took time.Duration) {
	if c == nil {
		return
	}
	c.pages.WithLabelValues(marketplace, result(err)).Inc()
	c.renderSeconds.WithLabelValues(marketplace).Observe(took.Seconds())
}

// Row records the outcome of one parsed row.
func (c *Crawl) Row(marketplace, outcome string) {
	if c == nil {
		return
	}
	c.rows.WithLabelValues(marketplace, outcome).Inc()
}

// LLMCall records one language model call.
func (c *Crawl) LLMCall(op string, err error) {
	if c == nil {
		return
	}
	c.llmCalls.WithLabelValues(op, result(err)).Inc()
}

// Insert records one storage insert.
func (c *Crawl) Insert(err error) {
	if c == nil {
		return
	}
	c.inserts.WithLabelValues(result(err)).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Crawl) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
