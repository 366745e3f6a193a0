package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/elonfeng/dealradar/internal/config"
	"github.com/elonfeng/dealradar/internal/scheduler"
	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/curate"
	"github.com/elonfeng/dealradar/pkg/deal"
	"github.com/elonfeng/dealradar/pkg/legit"
	"github.com/elonfeng/dealradar/pkg/pipeline"
	"github.com/elonfeng/dealradar/pkg/progress"
	"github.com/elonfeng/dealradar/pkg/scrape"
	"github.com/elonfeng/dealradar/pkg/score"
	"github.com/elonfeng/dealradar/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildScrapers(cfg *config.Config) []scrape.Scraper {
	fetcher := scrape.NewFetcher(nil, cfg.Fetch.ParseRetryDelays())

	var scrapers []scrape.Scraper
	if cfg.Retailers.AmazonAU.Enabled {
		scrapers = append(scrapers, scrape.NewAmazonAU(fetcher, cfg.Retailers.AmazonAU.Categories))
	}
	if cfg.Retailers.BargainFeeds.Enabled {
		for _, feed := range cfg.Retailers.BargainFeeds.Feeds {
			scrapers = append(scrapers, scrape.NewBargainFeed(feed.Name, feed.URL))
		}
	}
	return scrapers
}

func buildScorer(cfg *config.Config) *score.Scorer {
	return score.New(score.Weights{
		Discount:    cfg.Scoring.DiscountWeight,
		Quality:     cfg.Scoring.QualityWeight,
		Credibility: cfg.Scoring.CredibilityWeight,
		PriceTier:   cfg.Scoring.PriceTierWeight,
		Legitimacy:  cfg.Scoring.LegitimacyWeight,
	})
}

func buildProgressManager(cfg *config.Config) *progress.Manager {
	var notifiers []progress.Notifier

	if cfg.Progress.Webhook.Enabled && cfg.Progress.Webhook.URL != "" {
		notifiers = append(notifiers, progress.NewWebhook(cfg.Progress.Webhook.URL, cfg.Progress.Webhook.Secret))
	}
	if cfg.Progress.Slack.Enabled && cfg.Progress.Slack.WebhookURL != "" {
		notifiers = append(notifiers, progress.NewSlack(cfg.Progress.Slack.WebhookURL))
	}

	return progress.NewManager(notifiers)
}

func buildBuilder(cfg *config.Config) *curate.Builder {
	rules := curate.DefaultRules()
	if cfg.Collections.Limit > 0 {
		rules.Limit = cfg.Collections.Limit
	}
	return curate.NewBuilder(rules)
}

func runScrape(filterRetailers []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	allScrapers := buildScrapers(cfg)

	// Filter to requested retailers only.
	scrapers := allScrapers
	if len(filterRetailers) > 0 {
		wanted := make(map[string]bool)
		for _, r := range filterRetailers {
			wanted[strings.ToLower(strings.TrimSpace(r))] = true
		}
		scrapers = nil
		for _, sc := range allScrapers {
			if wanted[strings.ToLower(sc.Name())] {
				scrapers = append(scrapers, sc)
			}
		}
		if len(scrapers) == 0 {
			return fmt.Errorf("no matching retailers for: %s", strings.Join(filterRetailers, ", "))
		}
	}

	coord := pipeline.NewCoordinator(scrapers, buildScorer(cfg), buildProgressManager(cfg))
	sched := scheduler.New(db, coord, cfg.Schedule.ParseScrapeInterval())

	result, err := sched.RunOnce(context.Background())
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	counts := make(map[string]int)
	for _, d := range result.Deals {
		counts[d.Retailer]++
	}
	for retailer, n := range counts {
		fmt.Fprintf(os.Stderr, "  %s: %d deals\n", retailer, n)
	}
	fmt.Fprintf(os.Stderr, "\ntotal: %d deals from %d retailers\n", len(result.Deals), len(scrapers))
	return nil
}

func runDeals(jsonOutput bool, minScore float64, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	result, err := db.LatestResult(context.Background())
	if err != nil {
		return fmt.Errorf("latest result: %w", err)
	}
	if result == nil {
		fmt.Println("no deals found (try scraping first: dealradar scrape)")
		return nil
	}

	deals := make([]deal.Deal, 0, len(result.Deals))
	for _, d := range result.Deals {
		if d.Scores == nil || d.Scores.Total < minScore {
			continue
		}
		deals = append(deals, d)
	}
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Scores.Total > deals[j].Scores.Total
	})
	if limit > 0 && len(deals) > limit {
		deals = deals[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(deals)
	}

	if len(deals) == 0 {
		fmt.Println("no deals matched")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tDISCOUNT\tPRICE\tRETAILER\tTITLE")
	for _, d := range deals {
		fmt.Fprintf(w, "%.1f\t%.1f%%\t$%.2f\t%s\t%s\n",
			d.Scores.Total, d.DiscountPct, d.Price, d.Retailer, truncate(d.Title, 60))
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	coord := pipeline.NewCoordinator(buildScrapers(cfg), buildScorer(cfg), buildProgressManager(cfg))
	sched := scheduler.New(db, coord, cfg.Schedule.ParseScrapeInterval())

	srv := server.New(db, sched, buildBuilder(cfg), legit.NewInferencer(db), port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	coord := pipeline.NewCoordinator(buildScrapers(cfg), buildScorer(cfg), buildProgressManager(cfg))
	sched := scheduler.New(db, coord, cfg.Schedule.ParseScrapeInterval())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	srv := server.New(db, sched, buildBuilder(cfg), legit.NewInferencer(db), port)
	return srv.ListenAndServe()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
