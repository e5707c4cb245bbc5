package analysis

import "tenmunches/internal/domain"

// Enricher attaches a sentiment score and themes to reviews.
type Enricher struct {
	sentiment PolarityScorer
	themes    ThemeExtractor
}

func NewEnricher(s PolarityScorer, t ThemeExtractor) *Enricher {
	return &Enricher{sentiment: s, themes: t}
}

// Enrich returns copies of reviews, same length and order, each carrying
// Sentiment and Themes computed from its text. The input is not modified.
func (e *Enricher) Enrich(reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, len(reviews))
	for i, r := range reviews {
		s := e.sentiment.Score(r.Text)
		r.Sentiment = &s
		r.Themes = e.themes.Extract(r.Text)
		out[i] = r
	}
	return out
}
