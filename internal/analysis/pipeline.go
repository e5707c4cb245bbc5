package analysis

import (
	"fmt"
	"time"

	"tenmunches/internal/domain"
)

const DefaultTopK = 10

type Options struct {
	Strategy        ThemeStrategy
	TopK            int
	MaxTestimonials int
}

// Pipeline chains the per-category steps: enrich, summarize, rank, cut to the
// top K, select testimonials and strip.
type Pipeline struct {
	enricher        *Enricher
	topK            int
	maxTestimonials int
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Strategy == "" {
		opts.Strategy = DefaultThemeStrategy
	}
	themes, err := NewThemeExtractor(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.TopK < 0 || opts.MaxTestimonials < 0 {
		return nil, fmt.Errorf("pipeline: negative limits (top_k=%d, max_testimonials=%d)", opts.TopK, opts.MaxTestimonials)
	}
	if opts.TopK == 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxTestimonials == 0 {
		opts.MaxTestimonials = DefaultMaxTestimonials
	}
	return &Pipeline{
		enricher:        NewEnricher(NewSentimentScorer(), themes),
		topK:            opts.TopK,
		maxTestimonials: opts.MaxTestimonials,
	}, nil
}

func (p *Pipeline) Enrich(reviews []domain.Review) []domain.Review {
	return p.enricher.Enrich(reviews)
}

// Prepare enriches b's reviews and computes its theme summary.
func (p *Pipeline) Prepare(b *domain.Business) {
	b.Reviews = p.Enrich(b.Reviews)
	b.ThemesSummary = SummarizeThemes(b.Reviews)
}

// Finalize ranks prepared businesses, keeps the top K, attaches testimonials
// from each one's own reviews and strips reviews and scores.
func (p *Pipeline) Finalize(category string, businesses []domain.Business) domain.CategoryResult {
	ranked := Rank(businesses)
	if len(ranked) > p.topK {
		ranked = ranked[:p.topK]
	}
	for i := range ranked {
		ranked[i].Testimonials = SelectTestimonials(ranked[i].Reviews, p.maxTestimonials)
	}
	res := domain.CategoryResult{
		Category:  category,
		Top10:     ranked,
		UpdatedAt: time.Now().UTC(),
	}
	res.Strip()
	return res
}
