package legit

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/deal"
)

// Confidence expresses how much history backs a verdict.
type Confidence string

const (
	ConfidenceUnknown Confidence = "unknown"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

// Verdict is the outcome of judging a deal's advertised discount against
// observed price history. It is independent of the scorer's market-range
// legitimacy dimension; the two may disagree.
type Verdict struct {
	Legitimate   bool       `json:"legitimate"`
	Confidence   Confidence `json:"confidence"`
	Reason       string     `json:"reason"`
	AvgPrice     float64    `json:"avg_price,omitempty"`
	MinPrice     float64    `json:"min_price,omitempty"`
	MaxPrice     float64    `json:"max_price,omitempty"`
	RealDiscount float64    `json:"real_discount,omitempty"`
}

// History supplies recent price observations for a product at a retailer,
// most recent first.
type History interface {
	History(ctx context.Context, productID, retailer string, since time.Time) ([]store.PriceObservation, error)
}

// Inferencer judges advertised discounts against price history.
type Inferencer struct {
	history History
	window  time.Duration
}

// NewInferencer creates an Inferencer over a 30-day observation window.
func NewInferencer(h History) *Inferencer {
	return &Inferencer{history: h, window: 30 * 24 * time.Hour}
}

// Infer evaluates the decision table for one deal. Thresholds and branch
// order are deliberate: the claimed original price must have been a real
// shelf price (within 95%) and the current price must undercut the
// historical average by more than 10% before a discount is called genuine
// with high confidence.
func (inf *Inferencer) Infer(ctx context.Context, d deal.Deal) (Verdict, error) {
	productID := ProductID(d.URL)
	if productID == "" {
		return Verdict{Legitimate: true, Confidence: ConfidenceUnknown, Reason: "No price history available"}, nil
	}

	history, err := inf.history.History(ctx, productID, d.Retailer, time.Now().Add(-inf.window))
	if err != nil {
		return Verdict{}, fmt.Errorf("load price history for %s: %w", productID, err)
	}

	if len(history) < 2 {
		return Verdict{Legitimate: true, Confidence: ConfidenceUnknown, Reason: "Insufficient price history"}, nil
	}

	// The most recent observation is the current scrape; everything older is
	// the comparison window.
	historical := history[1:]
	if len(historical) == 1 {
		return Verdict{Legitimate: true, Confidence: ConfidenceLow, Reason: "First time seeing this price"}, nil
	}

	avg, minPrice, maxPrice := summarize(historical)

	originalWasReal := false
	for _, h := range history {
		if h.Price >= d.OriginalPrice*0.95 {
			originalWasReal = true
			break
		}
	}
	isRealDiscount := d.Price < avg*0.90

	switch {
	case originalWasReal && isRealDiscount:
		return Verdict{
			Legitimate: true,
			Confidence: ConfidenceHigh,
			Reason:     fmt.Sprintf("Price dropped from $%.2f avg to $%.2f", avg, d.Price),
			AvgPrice:   avg,
			MinPrice:   minPrice,
			MaxPrice:   maxPrice,
		}, nil
	case !originalWasReal && d.Price <= minPrice:
		return Verdict{
			Legitimate: true,
			Confidence: ConfidenceMedium,
			Reason:     "Lowest price seen in 30 days",
			AvgPrice:   avg,
			MinPrice:   minPrice,
		}, nil
	case !originalWasReal:
		return Verdict{
			Legitimate:   false,
			Confidence:   ConfidenceHigh,
			Reason:       fmt.Sprintf("Fake discount - never sold at $%.2f", d.OriginalPrice),
			AvgPrice:     avg,
			RealDiscount: deal.Round1((1 - d.Price/avg) * 100),
		}, nil
	default:
		return Verdict{
			Legitimate: true,
			Confidence: ConfidenceMedium,
			Reason:     "Price within normal range",
			AvgPrice:   avg,
		}, nil
	}
}

func summarize(obs []store.PriceObservation) (avg, min, max float64) {
	min = obs[0].Price
	max = obs[0].Price
	var sum float64
	for _, o := range obs {
		sum += o.Price
		if o.Price < min {
			min = o.Price
		}
		if o.Price > max {
			max = o.Price
		}
	}
	return sum / float64(len(obs)), min, max
}

// Listing URL id forms seen across retailers: catalog path, product path,
// inline attribute, bare trailing segment.
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`data-asin="([A-Z0-9]{10})"`),
	regexp.MustCompile(`/([A-Z0-9]{10})/`),
}

// ProductID extracts a stable product identifier from a listing URL, or ""
// when no known pattern matches.
func ProductID(url string) string {
	for _, p := range productIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
