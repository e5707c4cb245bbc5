package analysis

import (
	"unicode/utf8"

	"tenmunches/internal/domain"
)

const (
	DefaultMaxTestimonials = 3

	maxQuoteLen = 300
)

type tier func(r domain.Review, n int) bool

// Tiers in priority order. n is the text length in characters.
var testimonialTiers = []tier{
	func(r domain.Review, n int) bool { return r.Polarity() > 0.4 && len(r.Themes) > 0 && n > 0 && n < maxQuoteLen },
	func(r domain.Review, n int) bool { return r.Polarity() > 0.2 && n > 0 && n < maxQuoteLen },
	func(_ domain.Review, n int) bool { return n > 0 },
}

// SelectTestimonials picks up to max distinct quotes from reviews. Strong,
// on-topic, short reviews come first, then positive short ones, then any
// non-empty text. Within a tier reviews are taken in order.
func SelectTestimonials(reviews []domain.Review, max int) []string {
	out := []string{}
	if max <= 0 {
		return out
	}
	seen := make(map[string]struct{}, max)
	for _, match := range testimonialTiers {
		for _, r := range reviews {
			if !match(r, utf8.RuneCountInString(r.Text)) {
				continue
			}
			if _, dup := seen[r.Text]; dup {
				continue
			}
			seen[r.Text] = struct{}{}
			out = append(out, r.Text)
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}
