package scrape

import (
	"context"

	"github.com/elonfeng/dealradar/pkg/deal"
)

// Scraper is the interface every retailer collector must implement. Each
// implementation returns standardized deals in discovery order.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]deal.Deal, error)
}
