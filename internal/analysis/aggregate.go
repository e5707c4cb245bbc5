package analysis

import (
	"cmp"
	"slices"

	"tenmunches/internal/domain"
)

// SummarizeThemes counts, per theme, how many reviews mention it. Entries are
// ordered by descending count; equal counts keep first-seen order.
func SummarizeThemes(reviews []domain.Review) domain.ThemeSummary {
	idx := make(map[string]int)
	out := domain.ThemeSummary{}
	for _, r := range reviews {
		seen := make(map[string]struct{}, len(r.Themes))
		for _, t := range r.Themes {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if i, ok := idx[t]; ok {
				out[i].Count++
				continue
			}
			idx[t] = len(out)
			out = append(out, domain.ThemeCount{Theme: t, Count: 1})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ThemeCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
