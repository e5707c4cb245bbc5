package analysis

import (
	"cmp"
	"slices"

	"tenmunches/internal/domain"
)

// Rank scores every business in place and returns them ordered by score,
// highest first. Businesses with equal scores keep their input order.
func Rank(businesses []domain.Business) []domain.Business {
	for i := range businesses {
		s := ScoreBusiness(businesses[i])
		businesses[i].Score = &s
	}
	out := slices.Clone(businesses)
	slices.SortStableFunc(out, func(a, b domain.Business) int {
		return cmp.Compare(*b.Score, *a.Score)
	})
	return out
}
