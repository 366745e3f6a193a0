package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/elonfeng/dealradar/pkg/curate"
	"github.com/elonfeng/dealradar/pkg/deal"
	"github.com/elonfeng/dealradar/pkg/progress"
	"github.com/elonfeng/dealradar/pkg/scrape"
	"github.com/elonfeng/dealradar/pkg/score"
)

// Result is the durable payload served to clients after a pipeline run.
// Collections are not embedded: they are built on demand by consumers.
type Result struct {
	LastUpdated   time.Time                       `json:"last_updated"`
	Deals         []deal.Deal                     `json:"deals"`
	Categories    map[string][]string             `json:"categories"`
	CategoryStats map[string]curate.CategoryStats `json:"category_stats"`
}

// Coordinator drives a full scrape-score-organize run across all configured
// scrapers.
type Coordinator struct {
	scrapers []scrape.Scraper
	scorer   *score.Scorer
	sink     progress.Sink
}

// NewCoordinator wires the scrapers, the scorer, and an optional progress
// sink.
func NewCoordinator(scrapers []scrape.Scraper, scorer *score.Scorer, sink progress.Sink) *Coordinator {
	if scorer == nil {
		scorer = score.New(score.DefaultWeights())
	}
	return &Coordinator{scrapers: scrapers, scorer: scorer, sink: sink}
}

// Run fans out to every scraper concurrently, scores everything that came
// back, and assembles the result payload. A failing scraper contributes zero
// deals and a failed progress notification but never aborts the run or its
// siblings. Deals keep discovery order within a source; order across sources
// follows fan-out completion and is not stable between runs.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	type sourceResult struct {
		retailer string
		deals    []deal.Deal
	}

	results := make(chan sourceResult, len(c.scrapers))
	var wg sync.WaitGroup

	for _, sc := range c.scrapers {
		wg.Add(1)
		go func(sc scrape.Scraper) {
			defer wg.Done()

			deals, err := sc.Scrape(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s error: %v\n", sc.Name(), err)
				c.notify(&progress.Notification{
					Retailer: sc.Name(),
					Status:   progress.StatusFailed,
					Error:    err.Error(),
				})
				results <- sourceResult{retailer: sc.Name()}
				return
			}

			c.notify(&progress.Notification{
				Retailer:   sc.Name(),
				DealsFound: len(deals),
				Status:     progress.StatusComplete,
			})
			results <- sourceResult{retailer: sc.Name(), deals: deals}
		}(sc)
	}

	wg.Wait()
	close(results)

	var all []deal.Deal
	for r := range results {
		all = append(all, r.deals...)
	}

	// No market range here: the legitimacy dimension stays neutral and the
	// history-based inferencer judges discounts separately.
	for i := range all {
		scores := c.scorer.Score(all[i], nil)
		all[i].Scores = &scores
	}

	return &Result{
		LastUpdated:   time.Now().UTC(),
		Deals:         all,
		Categories:    curate.ByCategory(all),
		CategoryStats: curate.Stats(all),
	}, nil
}

func (c *Coordinator) notify(n *progress.Notification) {
	if c.sink != nil {
		c.sink.Notify(n)
	}
}
