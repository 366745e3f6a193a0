package scrape

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/elonfeng/dealradar/pkg/deal"
)

var (
	nonNumericExpr = regexp.MustCompile(`[^\d.]`)
	ratingExpr     = regexp.MustCompile(`\d+\.?\d*`)
)

// DefaultAmazonCategories are the search terms scraped when none are
// configured.
var DefaultAmazonCategories = []string{
	"electronics", "computers", "home", "kitchen", "sports", "toys", "fashion",
}

// AmazonAU scrapes Amazon Australia search result pages across several
// category terms and standardizes every product card it can parse.
type AmazonAU struct {
	// BaseURL is overridable for tests.
	BaseURL string

	fetcher    *Fetcher
	categories []string
}

// NewAmazonAU creates the Amazon AU scraper. A nil fetcher or empty category
// list selects the defaults.
func NewAmazonAU(fetcher *Fetcher, categories []string) *AmazonAU {
	if fetcher == nil {
		fetcher = NewFetcher(nil, nil)
	}
	if len(categories) == 0 {
		categories = DefaultAmazonCategories
	}
	return &AmazonAU{
		BaseURL:    "https://www.amazon.com.au",
		fetcher:    fetcher,
		categories: categories,
	}
}

func (a *AmazonAU) Name() string { return "Amazon AU" }

// Scrape walks every configured category search page. A page that could not
// be fetched is skipped; products already seen under another category are
// deduplicated by ASIN.
func (a *AmazonAU) Scrape(ctx context.Context) ([]deal.Deal, error) {
	var deals []deal.Deal
	seen := make(map[string]bool)

	for _, category := range a.categories {
		searchURL := fmt.Sprintf("%s/s?k=%s", a.BaseURL, url.QueryEscape(category))

		html := a.fetcher.Fetch(ctx, searchURL)
		if html == "" {
			fmt.Fprintf(os.Stderr, "  %s: no data for category %s\n", a.Name(), category)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: parse %s: %v\n", a.Name(), category, err)
			continue
		}

		doc.Find("[data-asin]").Each(func(_ int, card *goquery.Selection) {
			asin, _ := card.Attr("data-asin")
			if asin == "" || seen[asin] {
				return
			}

			raw, ok := a.parseCard(card)
			if !ok || raw.Price <= 0 {
				return
			}

			raw.Category = capitalize(category)
			deals = append(deals, deal.Standardize(a.Name(), raw))
			seen[asin] = true
		})
	}

	return deals, nil
}

// parseCard extracts a raw listing from one product card. Cards missing a
// title, link, or price are malformed and reported as not ok.
func (a *AmazonAU) parseCard(card *goquery.Selection) (deal.RawListing, bool) {
	var raw deal.RawListing

	img := card.Find("img").First()
	if img.Length() == 0 {
		return raw, false
	}

	// Amazon AU puts the product title on the image, aria-label first.
	title, _ := img.Attr("aria-label")
	if title == "" {
		title, _ = img.Attr("alt")
	}
	raw.Title = strings.TrimSpace(title)
	if raw.Title == "" {
		return raw, false
	}

	href, _ := card.Find("a[href]").First().Attr("href")
	if href == "" {
		return raw, false
	}
	if !strings.HasPrefix(href, "http") {
		href = a.BaseURL + href
	}
	raw.URL = href

	whole := strings.TrimSpace(card.Find(".a-price-whole").First().Text())
	whole = strings.TrimSuffix(strings.ReplaceAll(whole, ",", ""), ".")
	if whole == "" {
		return raw, false
	}
	fraction := strings.TrimSpace(card.Find(".a-price-fraction").First().Text())
	if fraction == "" {
		fraction = "00"
	}
	price, err := strconv.ParseFloat(whole+"."+fraction, 64)
	if err != nil {
		return raw, false
	}
	raw.Price = price

	raw.OriginalPrice = price
	if text := card.Find(".a-text-price span").First().Text(); text != "" {
		if v, err := strconv.ParseFloat(nonNumericExpr.ReplaceAllString(text, ""), 64); err == nil && v > 0 {
			raw.OriginalPrice = v
		}
	}

	if text := card.Find("i.a-icon-star span").First().Text(); text != "" {
		if m := ratingExpr.FindString(text); m != "" {
			raw.Rating, _ = strconv.ParseFloat(m, 64)
		}
	}

	if text := strings.TrimSpace(card.Find("span.a-size-base").First().Text()); text != "" {
		if v, err := strconv.Atoi(strings.ReplaceAll(text, ",", "")); err == nil {
			raw.ReviewCount = v
		}
	}

	raw.Image, _ = img.Attr("src")
	return raw, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
