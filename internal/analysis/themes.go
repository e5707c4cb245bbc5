package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// MaxThemes caps the number of themes attached to a single review.
const MaxThemes = 5

// ThemeStrategy names a theme extraction variant.
type ThemeStrategy string

const (
	// StrategyFrequency picks the most frequent non-stopword words.
	StrategyFrequency ThemeStrategy = "frequency"
	// StrategyKeyword maps curated keywords onto fixed topic labels.
	StrategyKeyword ThemeStrategy = "keyword"

	DefaultThemeStrategy = StrategyFrequency
)

// ParseThemeStrategy accepts "frequency", "keyword" or "" (the default).
func ParseThemeStrategy(s string) (ThemeStrategy, error) {
	switch ThemeStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultThemeStrategy, nil
	case StrategyFrequency:
		return StrategyFrequency, nil
	case StrategyKeyword:
		return StrategyKeyword, nil
	}
	return "", fmt.Errorf("unknown theme strategy %q (want %q or %q)", s, StrategyFrequency, StrategyKeyword)
}

// ThemeExtractor derives at most MaxThemes distinct topical labels from text.
type ThemeExtractor interface {
	Extract(text string) []string
	Strategy() ThemeStrategy
}

func NewThemeExtractor(s ThemeStrategy) (ThemeExtractor, error) {
	switch s {
	case StrategyFrequency:
		return FrequencyThemes{}, nil
	case StrategyKeyword:
		return KeywordThemes{}, nil
	}
	return nil, fmt.Errorf("unknown theme strategy %q", s)
}

/********** keyword strategy **********/

type themeKeywords struct {
	theme    string
	keywords []string
}

// themeTable is read-only; declaration order is output order.
var themeTable = []themeKeywords{
	{"taste", []string{"flavor", "taste", "delicious", "bland", "spicy", "sweet", "savory"}},
	{"price", []string{"cheap", "affordable", "price", "expensive", "worth", "deal", "value"}},
	{"ambiance", []string{"ambience", "decor", "atmosphere", "vibe", "cozy", "noisy"}},
	{"service", []string{"service", "staff", "friendly", "rude", "slow", "waiter", "manager"}},
}

// KeywordThemes reports every topic with at least one keyword occurring as a
// substring of the lower-cased text.
type KeywordThemes struct{}

func (KeywordThemes) Strategy() ThemeStrategy { return StrategyKeyword }

func (KeywordThemes) Extract(text string) []string {
	lowered := strings.ToLower(text)
	out := make([]string, 0, len(themeTable))
	for _, tk := range themeTable {
		for _, kw := range tk.keywords {
			if strings.Contains(lowered, kw) {
				out = append(out, tk.theme)
				break
			}
		}
	}
	if len(out) > MaxThemes {
		out = out[:MaxThemes]
	}
	return out
}

// KeywordTopics lists the topic labels KeywordThemes can emit.
func KeywordTopics() []string {
	out := make([]string, len(themeTable))
	for i, tk := range themeTable {
		out[i] = tk.theme
	}
	return out
}

/********** frequency strategy **********/

const minThemeWordLen = 4

var stopwords = func() map[string]struct{} {
	words := []string{
		"the", "and", "was", "for", "with", "this", "that", "you", "your", "are", "but",
		"not", "have", "they", "had", "from", "has", "it's", "its", "our", "been", "very",
		"just", "too", "all", "out", "get", "who", "she", "he", "them", "some", "what",
		"were", "also",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether w is excluded by FrequencyThemes.
func IsStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

// FrequencyThemes returns the MaxThemes most frequent words, ordered by
// descending count with ties kept in first-occurrence order.
type FrequencyThemes struct{}

func (FrequencyThemes) Strategy() ThemeStrategy { return StrategyFrequency }

func (FrequencyThemes) Extract(text string) []string {
	counts := make(map[string]int)
	order := make([]string, 0, 8)
	for _, w := range themeWords(text) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return cmp.Compare(counts[b], counts[a])
	})
	if len(order) > MaxThemes {
		order = order[:MaxThemes]
	}
	return order
}

// themeWords lower-cases text and returns its whole words made only of ASCII
// letters and at least minThemeWordLen long. Words touching digits, underscores
// or non-ASCII letters are dropped entirely rather than split.
func themeWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= minThemeWordLen && isASCIIAlpha(f) {
			out = append(out, f)
		}
	}
	return out
}

func isASCIIAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
