package cma

import (
	"math"

	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/provider"
)

// PriceRange is the inclusive [Min, Max] of resolved prices.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary holds the statistics shown beside a comparable set.
type Summary struct {
	Count               int        `json:"count"`
	AveragePrice        float64    `json:"averagePrice"`
	AverageArea         float64    `json:"averageArea"`
	AveragePricePerArea float64    `json:"averagePricePerArea"`
	PriceRange          PriceRange `json:"priceRange"`
}

// ResolvedPrice is the close price for closed listings that have one and the
// list price otherwise. Missing prices count as zero.
func ResolvedPrice(p provider.Property) float64 {
	if p.Status == criteria.StatusClosed && p.ClosePrice > 0 {
		return p.ClosePrice
	}
	return p.ListPrice
}

// Summarize computes the statistics for props. ok is false for an empty set.
//
// AveragePricePerArea is the mean of each property's price/area, not total
// price over total area. Area below one square foot is treated as one.
func Summarize(props []provider.Property) (s Summary, ok bool) {
	if len(props) == 0 {
		return Summary{}, false
	}
	var sumPrice, sumArea, sumPPA float64
	s.PriceRange = PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range props {
		price := ResolvedPrice(p)
		sumPrice += price
		sumArea += p.LivingArea
		sumPPA += price / math.Max(p.LivingArea, 1)
		s.PriceRange.Min = math.Min(s.PriceRange.Min, price)
		s.PriceRange.Max = math.Max(s.PriceRange.Max, price)
	}
	n := float64(len(props))
	s.Count = len(props)
	s.AveragePrice = sumPrice / n
	s.AverageArea = sumArea / n
	s.AveragePricePerArea = sumPPA / n
	return s, true
}
