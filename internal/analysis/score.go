package analysis

import (
	"math"

	"tenmunches/internal/domain"
)

// ScoreBusiness returns rating + (mean sentiment + 1) / 2 + volume bonus,
// rounded to three decimals. Reviews that were never enriched count as 0.
func ScoreBusiness(b domain.Business) float64 {
	var avg float64
	if n := len(b.Reviews); n > 0 {
		var sum float64
		for _, r := range b.Reviews {
			sum += r.Polarity()
		}
		avg = sum / float64(n)
	}
	return round3(b.Rating + (avg+1.0)/2.0 + volumeBonus(b.ReviewCount))
}

func volumeBonus(reviewCount int) float64 {
	switch {
	case reviewCount > 500:
		return 0.5
	case reviewCount > 100:
		return 0.25
	default:
		return 0
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
