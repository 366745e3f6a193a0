package curate

import (
	"sort"

	"github.com/elonfeng/dealradar/pkg/deal"
)

// Rules holds the tunable thresholds and the size limit for the smart
// collections.
type Rules struct {
	Limit int

	BestOverallMinTotal  float64
	BestOverallMinRating float64

	BiggestDiscountsMinPct    float64
	BiggestDiscountsMinRating float64

	HiddenGemsMinTotal   float64
	HiddenGemsMaxReviews int
	HiddenGemsMinRating  float64

	VerifiedDropsMinLegitimacy float64
	VerifiedDropsMinTotal      float64

	PremiumPicksMinPrice      float64
	PremiumPicksMinRating     float64
	PremiumPicksMinLegitimacy float64
}

// DefaultRules returns the standard collection policy.
func DefaultRules() Rules {
	return Rules{
		Limit:                      50,
		BestOverallMinTotal:        80,
		BestOverallMinRating:       3.5,
		BiggestDiscountsMinPct:     50,
		BiggestDiscountsMinRating:  3.5,
		HiddenGemsMinTotal:         70,
		HiddenGemsMaxReviews:       100,
		HiddenGemsMinRating:        4.0,
		VerifiedDropsMinLegitimacy: 80,
		VerifiedDropsMinTotal:      60,
		PremiumPicksMinPrice:       500,
		PremiumPicksMinRating:      4.5,
		PremiumPicksMinLegitimacy:  70,
	}
}

// Builder partitions scored deals into named collections. Unscored deals are
// ignored; a deal may appear in several collections.
type Builder struct {
	rules Rules
}

// NewBuilder creates a Builder. A zero limit falls back to 50.
func NewBuilder(rules Rules) *Builder {
	if rules.Limit <= 0 {
		rules.Limit = 50
	}
	return &Builder{rules: rules}
}

// BuildAll returns every collection keyed by name.
func (b *Builder) BuildAll(deals []deal.Deal) map[string][]string {
	return map[string][]string{
		"best_overall":      b.BestOverall(deals),
		"biggest_discounts": b.BiggestDiscounts(deals),
		"hidden_gems":       b.HiddenGems(deals),
		"verified_drops":    b.VerifiedDrops(deals),
		"premium_picks":     b.PremiumPicks(deals),
	}
}

// BestOverall selects the top deals by total score. If nothing passes the
// threshold, it falls back to all scored deals so the collection is never
// needlessly empty. No other collection relaxes this way.
func (b *Builder) BestOverall(deals []deal.Deal) []string {
	ids := b.build(deals, func(d deal.Deal) bool {
		return d.Scores.Total >= b.rules.BestOverallMinTotal && d.Rating >= b.rules.BestOverallMinRating
	}, byTotal)

	if len(ids) == 0 {
		ids = b.build(deals, func(deal.Deal) bool { return true }, byTotal)
	}
	return ids
}

// BiggestDiscounts selects well-rated deals with the largest discounts.
func (b *Builder) BiggestDiscounts(deals []deal.Deal) []string {
	return b.build(deals, func(d deal.Deal) bool {
		return d.DiscountPct >= b.rules.BiggestDiscountsMinPct && d.Rating >= b.rules.BiggestDiscountsMinRating
	}, func(d deal.Deal) float64 { return d.DiscountPct })
}

// HiddenGems selects strong deals that few shoppers have reviewed yet.
func (b *Builder) HiddenGems(deals []deal.Deal) []string {
	return b.build(deals, func(d deal.Deal) bool {
		return d.Scores.Total >= b.rules.HiddenGemsMinTotal &&
			d.ReviewCount < b.rules.HiddenGemsMaxReviews &&
			d.Rating >= b.rules.HiddenGemsMinRating
	}, byTotal)
}

// VerifiedDrops selects deals whose reference price looks genuine.
func (b *Builder) VerifiedDrops(deals []deal.Deal) []string {
	return b.build(deals, func(d deal.Deal) bool {
		return d.Scores.Legitimacy >= b.rules.VerifiedDropsMinLegitimacy &&
			d.Scores.Total >= b.rules.VerifiedDropsMinTotal
	}, byTotal)
}

// PremiumPicks selects big-ticket items with excellent ratings and credible
// reference prices.
func (b *Builder) PremiumPicks(deals []deal.Deal) []string {
	return b.build(deals, func(d deal.Deal) bool {
		return d.Price > b.rules.PremiumPicksMinPrice &&
			d.Rating >= b.rules.PremiumPicksMinRating &&
			d.Scores.Legitimacy >= b.rules.PremiumPicksMinLegitimacy
	}, byTotal)
}

// build applies filter, descending stable sort, and the limit. The stable
// sort is required: ties must preserve relative input order.
func (b *Builder) build(deals []deal.Deal, match func(deal.Deal) bool, key func(deal.Deal) float64) []string {
	var picked []deal.Deal
	for _, d := range deals {
		if d.Scores == nil {
			continue
		}
		if match(d) {
			picked = append(picked, d)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return key(picked[i]) > key(picked[j])
	})

	if len(picked) > b.rules.Limit {
		picked = picked[:b.rules.Limit]
	}

	ids := make([]string, len(picked))
	for i, d := range picked {
		ids[i] = d.ID
	}
	return ids
}

func byTotal(d deal.Deal) float64 {
	return d.Scores.Total
}
