package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"comps-scraper/browser"
	"comps-scraper/config"
	"comps-scraper/llm"
	"comps-scraper/metrics"
	"comps-scraper/models"
	"comps-scraper/scraper"
	"comps-scraper/services"
	"comps-scraper/storage"
	"comps-scraper/utils"
)

func newCrawlCmd() *cobra.Command {
	var (
		query    string
		features string
	)

	cmd := &cobra.Command{
		Use:       "crawl <ebay|poshmark|mercari>",
		Short:     "Crawl one marketplace and store the comps it finds",
		Args:      cobra.ExactArgs(1),
		ValidArgs: spiderNames()[:len(models.Marketplaces)],
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := models.ParseMarketplace(args[0])
			if err != nil {
				return err
			}
			item, err := parseFeatures(features)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return crawl(cmd.Context(), cfg, m, scraper.Options{
				Query:     query,
				Features:  item,
				Threshold: cfg.SimilarityThreshold,
			})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query string")
	cmd.Flags().StringVar(&features, "features", "", "JSON object of item features for AI matching")

	return cmd
}

// crawl runs one spider to completion. Only startup failures are returned.
func crawl(ctx context.Context, cfg *config.Config, m models.Marketplace, opts scraper.Options) error {
	logger := utils.NewLogger()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Warn("[crawl] %v, using info", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("[crawl] %v", err)
		return err
	}

	logger = logger.With("run", uuid.NewString()[:8])
	logger.Info("[crawl] Starting %s spider (query %q, %d reference features)", m, opts.Query, len(opts.Features))

	site, err := siteFor(m)
	if err != nil {
		return err
	}

	crawlMetrics := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := crawlMetrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Warn("[metrics] Listener on %s stopped: %v", cfg.MetricsAddr, err)
			}
		}()
	}

	provider, err := llm.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("crawl: llm provider: %w", err)
	}
	defer provider.Close()
	agent := services.NewAgent(provider, services.AgentConfig{Model: cfg.Model(), Timeout: cfg.LLMTimeout}, crawlMetrics, logger)

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("crawl: storage: %w", err)
	}
	pipeline := services.NewPipeline(store, crawlMetrics, logger)
	defer pipeline.Close()

	renderer, err := browser.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("crawl: browser: %w", err)
	}
	defer renderer.Close()

	pool := utils.NewWorkerPool(cfg.ConcurrentRequests, cfg.DownloadDelayDuration())
	spider := scraper.NewSpider(site, renderer, agent, pipeline, pool, crawlMetrics, logger, opts)

	res, err := spider.Run(ctx)
	if err != nil {
		logger.Warn("[crawl] Crawl interrupted: %v", err)
	}

	summary := services.NewSummaryService(logger)
	summary.Log(summary.Generate(m, res.Listings))
	return nil
}
