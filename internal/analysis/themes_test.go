package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThemeStrategy(t *testing.T) {
	cases := []struct {
		in      string
		want    ThemeStrategy
		wantErr bool
	}{
		{"", StrategyFrequency, false},
		{"frequency", StrategyFrequency, false},
		{" Keyword ", StrategyKeyword, false},
		{"llm", "", true},
	}
	for _, tc := range cases {
		got, err := ParseThemeStrategy(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNewThemeExtractor(t *testing.T) {
	for _, s := range []ThemeStrategy{StrategyFrequency, StrategyKeyword} {
		ex, err := NewThemeExtractor(s)
		require.NoError(t, err)
		assert.Equal(t, s, ex.Strategy())
	}
	_, err := NewThemeExtractor("nope")
	assert.Error(t, err)
}

func TestKeywordThemes(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"Delicious but expensive, and the staff were rude", []string{"taste", "price", "service"}},
		{"Such a COZY little spot", []string{"ambiance"}},
		{"FRIENDLY waiter, great value, spicy noodles, noisy room", []string{"taste", "price", "ambiance", "service"}},
		{"", []string{}},
		{"We parked outside.", []string{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KeywordThemes{}.Extract(tc.text), tc.text)
	}
}

func TestKeywordTopics(t *testing.T) {
	assert.Equal(t, []string{"taste", "price", "ambiance", "service"}, KeywordTopics())
}

func TestFrequencyThemes_OrderAndTies(t *testing.T) {
	got := FrequencyThemes{}.Extract("Latte latte LATTE, coffee coffee, great beans")
	assert.Equal(t, []string{"latte", "coffee", "great", "beans"}, got)
}

func TestFrequencyThemes_CapsAtFive(t *testing.T) {
	got := FrequencyThemes{}.Extract("alpha bravo charlie delta echo foxtrot golf hotel")
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, got)
}

func TestFrequencyThemes_DropsStopwordsAndShortWords(t *testing.T) {
	assert.Empty(t, FrequencyThemes{}.Extract("They have been, were also with them"))
	assert.Empty(t, FrequencyThemes{}.Extract("It is a big hot pie"))
	assert.Empty(t, FrequencyThemes{}.Extract(""))
}

func TestFrequencyThemes_WholeASCIIWordsOnly(t *testing.T) {
	got := FrequencyThemes{}.Extract("pizza4you café crème snake_case tacos")
	assert.Equal(t, []string{"tacos"}, got)
}

func TestFrequencyThemes_NeverStopwordNeverOverFive(t *testing.T) {
	texts := []string{
		"This place was very good, with great pizza and great pasta. They were friendly.",
		strings.Repeat("amazing burger fries shake ", 10) + "from their kitchen also",
		"Have they been here? What were them doing with your order?",
	}
	for _, text := range texts {
		got := FrequencyThemes{}.Extract(text)
		assert.LessOrEqual(t, len(got), MaxThemes)
		for _, w := range got {
			assert.False(t, IsStopword(w), w)
		}
	}
}
