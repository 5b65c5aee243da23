package services

import (
	"context"
	"time"

	"comps-scraper/metrics"
	"comps-scraper/models"
	"comps-scraper/storage"
	"comps-scraper/utils"
)

// Pipeline hands each emitted listing to storage exactly once. Failures are
// logged and counted; nothing is retried or queued.
type Pipeline struct {
	writer  storage.ListingWriter
	metrics *metrics.Crawl
	logger  *utils.Logger
	now     func() time.Time
}

// NewPipeline creates a Pipeline over an opened writer.
func NewPipeline(writer storage.ListingWriter, m *metrics.Crawl, logger *utils.Logger) *Pipeline {
	return &Pipeline{writer: writer, metrics: m, logger: logger, now: time.Now}
}

// Process stamps, validates and inserts l. The returned error is informational:
// the listing counts as processed either way.
func (p *Pipeline) Process(ctx context.Context, l *models.Listing) error {
	if l.ScrapedAt.IsZero() {
		l.ScrapedAt = p.now().UTC()
	}

	if err := l.Validate(); err != nil {
		p.logger.Warn("[pipeline] Dropping %s listing %q: %v", l.Marketplace, l.Title, err)
		p.metrics.Insert(err)
		return err
	}

	err := p.writer.Insert(ctx, l)
	p.metrics.Insert(err)
	if err != nil {
		p.logger.Error("[pipeline] Error inserting item: %v", err)
		return err
	}

	p.logger.Debug("[pipeline] Stored %s listing %q (id %d)", l.Marketplace, l.Title, l.ID)
	return nil
}

// Close releases the writer.
func (p *Pipeline) Close() error {
	err := p.writer.Close()
	p.logger.Info("[pipeline] Pipeline closed")
	return err
}
