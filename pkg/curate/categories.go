package curate

import "github.com/elonfeng/dealradar/pkg/deal"

// CategoryStats aggregates the deals belonging to one category.
type CategoryStats struct {
	Count       int     `json:"count"`
	AvgDiscount float64 `json:"avg_discount"`
	AvgPrice    float64 `json:"avg_price"`
	MaxDiscount float64 `json:"max_discount"`
}

// ByCategory groups deal IDs by category, preserving input order within each
// group. Deals without a category land in "Other".
func ByCategory(deals []deal.Deal) map[string][]string {
	categories := make(map[string][]string)
	for _, d := range deals {
		categories[categoryOf(d)] = append(categories[categoryOf(d)], d.ID)
	}
	return categories
}

// Stats computes per-category aggregates. Zero-valued fields count toward
// the averages rather than being excluded; a category with no deals simply
// has no entry.
func Stats(deals []deal.Deal) map[string]CategoryStats {
	stats := make(map[string]CategoryStats)
	for _, d := range deals {
		s := stats[categoryOf(d)]
		s.Count++
		s.AvgDiscount += d.DiscountPct
		s.AvgPrice += d.Price
		if d.DiscountPct > s.MaxDiscount {
			s.MaxDiscount = d.DiscountPct
		}
		stats[categoryOf(d)] = s
	}

	for cat, s := range stats {
		s.AvgDiscount /= float64(s.Count)
		s.AvgPrice /= float64(s.Count)
		stats[cat] = s
	}
	return stats
}

func categoryOf(d deal.Deal) string {
	if d.Category == "" {
		return "Other"
	}
	return d.Category
}
