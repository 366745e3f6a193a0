package deal

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// RawListing is what a retailer scraper extracts from a single product
// card before standardization.
type RawListing struct {
	Title         string
	Price         float64
	OriginalPrice float64
	URL           string
	Image         string
	Rating        float64
	ReviewCount   int
	Category      string
}

// ScoreSet holds the five dimension scores plus the weighted total, each in
// 0-100. A deal carries either a complete ScoreSet or none at all.
type ScoreSet struct {
	Discount    float64 `json:"discount"`
	Quality     float64 `json:"quality"`
	Credibility float64 `json:"credibility"`
	PriceTier   float64 `json:"price_tier"`
	Legitimacy  float64 `json:"legitimacy"`
	Total       float64 `json:"total"`
}

// Deal is the standardized listing record shared by every component.
type Deal struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"original_price"`
	DiscountPct   float64   `json:"discount_pct"`
	URL           string    `json:"url"`
	Image         string    `json:"image"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	Category      string    `json:"category"`
	Retailer      string    `json:"retailer"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Scores        *ScoreSet `json:"scores,omitempty"`
}

// Standardize converts a raw listing into a Deal. The discount percentage is
// always recomputed from the two prices, never trusted from the source, and
// the ID is derived from retailer+URL so re-scraping the same listing yields
// the same ID across runs.
func Standardize(retailer string, raw RawListing) Deal {
	var discount float64
	if raw.OriginalPrice > 0 && raw.Price > 0 {
		discount = Round1((raw.OriginalPrice - raw.Price) / raw.OriginalPrice * 100)
	}

	title := raw.Title
	if title == "" {
		title = "Unknown Product"
	}

	original := raw.OriginalPrice
	if original == 0 {
		original = raw.Price
	}

	category := raw.Category
	if category == "" {
		category = "Uncategorized"
	}

	return Deal{
		ID:            ListingID(retailer, raw.URL),
		Title:         title,
		Price:         raw.Price,
		OriginalPrice: original,
		DiscountPct:   discount,
		URL:           raw.URL,
		Image:         raw.Image,
		Rating:        raw.Rating,
		ReviewCount:   raw.ReviewCount,
		Category:      category,
		Retailer:      retailer,
		ScrapedAt:     time.Now().UTC(),
	}
}

// ListingID derives the deterministic deal identifier for a retailer+URL
// pair: the lowercased retailer without spaces, a dash, and the first 12 hex
// characters of md5(retailer_lowercase + "-" + url).
func ListingID(retailer, url string) string {
	sum := md5.Sum([]byte(strings.ToLower(retailer) + "-" + url))
	digest := hex.EncodeToString(sum[:])[:12]
	prefix := strings.ReplaceAll(strings.ToLower(retailer), " ", "")
	return prefix + "-" + digest
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
