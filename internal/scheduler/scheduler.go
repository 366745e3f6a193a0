package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/legit"
	"github.com/elonfeng/dealradar/pkg/pipeline"
)

// Scheduler runs the scraping pipeline on a fixed interval and persists
// whatever each run produces: one result snapshot plus one price observation
// per deal with a recognizable product id.
type Scheduler struct {
	store    store.Store
	coord    *pipeline.Coordinator
	interval time.Duration
}

// New creates a new scheduler.
func New(s store.Store, coord *pipeline.Coordinator, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{store: s, coord: coord, interval: interval}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled. A run either
// completes or is abandoned with the context; there is no mid-run cancel.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fmt.Fprintln(os.Stderr, "scheduler: initial scrape...")
	if _, err := s.RunOnce(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  pipeline error: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "scheduler: running (scrape every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: scraping...")
			if _, err := s.RunOnce(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "  pipeline error: %v\n", err)
			}
		}
	}
}

// RunOnce executes one full pipeline run and persists the outcome. Storage
// failures on individual observations are logged and skipped; they never
// fail the run.
func (s *Scheduler) RunOnce(ctx context.Context) (*pipeline.Result, error) {
	result, err := s.coord.Run(ctx)
	if err != nil {
		return nil, err
	}

	recorded := 0
	for _, d := range result.Deals {
		productID := legit.ProductID(d.URL)
		if productID == "" {
			continue
		}

		obs := &store.PriceObservation{
			ProductID:     productID,
			Retailer:      d.Retailer,
			Price:         d.Price,
			OriginalPrice: d.OriginalPrice,
			Title:         d.Title,
			URL:           d.URL,
			Timestamp:     d.ScrapedAt,
		}
		if err := s.store.AppendObservation(ctx, obs); err != nil {
			fmt.Fprintf(os.Stderr, "  observation %s: %v\n", d.ID, err)
			continue
		}
		recorded++
	}

	if err := s.store.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	fmt.Fprintf(os.Stderr, "  %d deals, %d observations recorded\n", len(result.Deals), recorded)
	return result, nil
}
