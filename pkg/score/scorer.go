package score

import (
	"math"

	"github.com/elonfeng/dealradar/pkg/deal"
)

// Weights control how much each dimension contributes to the total.
// They are a tunable policy constant and must sum to 1.0.
type Weights struct {
	Discount    float64
	Quality     float64
	Credibility float64
	PriceTier   float64
	Legitimacy  float64
}

// DefaultWeights returns the standard scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Discount:    0.30,
		Quality:     0.25,
		Credibility: 0.15,
		PriceTier:   0.15,
		Legitimacy:  0.15,
	}
}

// MarketRange is an externally supplied believed-fair price band for a
// product. It feeds only the legitimacy dimension.
type MarketRange struct {
	Min float64
	Max float64
}

// Scorer computes value scores for deals. It is pure and deterministic:
// the same deal and market range always produce the same ScoreSet.
type Scorer struct {
	weights Weights
}

// New creates a Scorer. Zero weights fall back to the defaults.
func New(w Weights) *Scorer {
	if w.Discount+w.Quality+w.Credibility+w.PriceTier+w.Legitimacy == 0 {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Score calculates all five dimensions and the weighted total for a deal.
// A nil market range yields the neutral legitimacy score.
func (s *Scorer) Score(d deal.Deal, market *MarketRange) deal.ScoreSet {
	set := deal.ScoreSet{
		Discount:    DiscountScore(d.DiscountPct),
		Quality:     QualityScore(d.Rating),
		Credibility: CredibilityScore(d.ReviewCount),
		PriceTier:   PriceTierScore(d.Price),
		Legitimacy:  LegitimacyScore(d.OriginalPrice, market),
	}
	set.Total = deal.Round1(set.Discount*s.weights.Discount +
		set.Quality*s.weights.Quality +
		set.Credibility*s.weights.Credibility +
		set.PriceTier*s.weights.PriceTier +
		set.Legitimacy*s.weights.Legitimacy)
	return set
}

// DiscountScore scores the advertised discount percentage. Capped at 90 so
// suspiciously large discounts are not rewarded as if certainly genuine.
func DiscountScore(discountPct float64) float64 {
	return math.Min(discountPct, 90)
}

// QualityScore scores the star rating. Ratings below 3.5 are floor-penalized;
// an unknown rating (0) scores 0.
func QualityScore(rating float64) float64 {
	switch {
	case rating == 0:
		return 0
	case rating >= 4.5:
		return 100
	case rating >= 4.0:
		return 80
	case rating >= 3.5:
		return 65
	case rating >= 3.0:
		return 50
	default:
		return math.Max(40, rating*10)
	}
}

// CredibilityScore scores the review count on a log scale, since marginal
// trust from additional reviews diminishes: 10 reviews is about 30, 100 is
// about 60, 1000+ is about 90, asymptoting at 100.
func CredibilityScore(reviewCount int) float64 {
	if reviewCount <= 0 {
		return 0
	}
	return math.Min(30*math.Log10(float64(reviewCount)), 100)
}

// PriceTierScore treats a higher absolute price as a weak proxy for a
// big-ticket deal worth surfacing.
func PriceTierScore(price float64) float64 {
	switch {
	case price < 50:
		return 40
	case price < 200:
		return 70
	case price < 1000:
		return 90
	default:
		return 100
	}
}

// LegitimacyScore compares the claimed original price against the market
// average. No market range, or a degenerate one, yields a neutral 60.
func LegitimacyScore(originalPrice float64, market *MarketRange) float64 {
	if market == nil {
		return 60
	}
	avg := (market.Min + market.Max) / 2
	if avg <= 0 {
		return 60
	}

	markupPct := (originalPrice - avg) / avg * 100
	switch {
	case markupPct <= 10:
		return 100
	case markupPct <= 20:
		return 70
	default:
		return 30
	}
}
