// Package analysis holds the review enrichment, business scoring, ranking and
// testimonial selection pipeline. Every function here is pure and total: bad
// field values degrade to zero values instead of errors.
package analysis

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

var (
	vaderAnalyzer *govader.SentimentIntensityAnalyzer
	vaderOnce     sync.Once
)

func getVaderAnalyzer() *govader.SentimentIntensityAnalyzer {
	vaderOnce.Do(func() {
		vaderAnalyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return vaderAnalyzer
}

// PolarityScorer maps text to a polarity in [-1, 1].
type PolarityScorer interface {
	Score(text string) float64
}

// SentimentScorer is a lexicon and rule based polarity estimator. VADER
// handles intensity modifiers and negation per phrase; phrases are then
// averaged over those that carry an opinion.
type SentimentScorer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{vader: getVaderAnalyzer()}
}

// Score returns the mean compound polarity of the opinion phrases in text.
// Empty text and text without opinion phrases score 0.
func (s *SentimentScorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	var sum float64
	n := 0
	for _, phrase := range splitPhrases(text) {
		c := s.vader.PolarityScores(phrase).Compound
		if c == 0 {
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n), -1, 1)
}

// splitPhrases breaks text at sentence terminators and line breaks. The
// terminator stays with its phrase since VADER reads "!" as emphasis.
func splitPhrases(text string) []string {
	var out []string
	start := 0
	flush := func(end int) {
		if p := strings.TrimSpace(text[start:end]); p != "" {
			out = append(out, p)
		}
		start = end
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// keep runs like "!!!" or "..." together
			j := i + 1
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			flush(j)
			i = j - 1
		case '\n', ';':
			flush(i)
			start = i + 1
		}
	}
	flush(len(text))
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
