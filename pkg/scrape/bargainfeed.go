package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/dealradar/pkg/deal"
)

var priceExpr = regexp.MustCompile(`\$([\d,]+(?:\.\d{1,2})?)`)

// BargainFeed collects deals from community bargain RSS feeds, where prices
// are embedded in entry titles like "Widget Pro $99 (Was $199)". Entries
// without a recognizable price are skipped.
type BargainFeed struct {
	client  *http.Client
	parser  *gofeed.Parser
	name    string
	feedURL string
}

// NewBargainFeed creates a scraper over one named bargain feed.
func NewBargainFeed(name, feedURL string) *BargainFeed {
	return &BargainFeed{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		name:    name,
		feedURL: feedURL,
	}
}

func (b *BargainFeed) Name() string { return b.name }

func (b *BargainFeed) Scrape(ctx context.Context) ([]deal.Deal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", b.name, err)
	}
	req.Header.Set("User-Agent", "dealradar/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", b.name, resp.StatusCode)
	}

	parsed, err := b.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", b.name, err)
	}

	var deals []deal.Deal
	for _, entry := range parsed.Items {
		price, original, ok := parsePrices(entry.Title)
		if !ok {
			continue
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		if link == "" {
			continue
		}

		category := ""
		if len(entry.Categories) > 0 {
			category = entry.Categories[0]
		}

		deals = append(deals, deal.Standardize(b.name, deal.RawListing{
			Title:         entry.Title,
			Price:         price,
			OriginalPrice: original,
			URL:           link,
			Category:      category,
		}))
	}

	return deals, nil
}

// parsePrices pulls the sale and claimed original prices out of a feed entry
// title. The first dollar amount is the sale price; a later amount, if any,
// is taken as the original.
func parsePrices(title string) (price, original float64, ok bool) {
	matches := priceExpr.FindAllStringSubmatch(title, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}

	price = parseAmount(matches[0][1])
	if price <= 0 {
		return 0, 0, false
	}

	original = price
	if len(matches) > 1 {
		if v := parseAmount(matches[1][1]); v > price {
			original = v
		}
	}
	return price, original, true
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
