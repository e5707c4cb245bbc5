package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Business is one place competing for a spot in a category's top list.
type Business struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Address     string   `json:"address"`
	Categories  []string `json:"categories"`
	URL         string   `json:"url"`
	PhotoURL    string   `json:"photo_url"`

	Reviews       []Review     `json:"reviews,omitempty"`
	Score         *float64     `json:"score,omitempty"`
	ThemesSummary ThemeSummary `json:"themes_summary"`
	Testimonials  []string     `json:"testimonials"`
}

// Strip drops the raw reviews and the ranking score, keeping only what
// downstream consumers read. Testimonials always encode as an array.
func (b *Business) Strip() {
	b.Reviews = nil
	b.Score = nil
	if b.Testimonials == nil {
		b.Testimonials = []string{}
	}
}

// UnmarshalJSON decodes a missing or null testimonials field as [].
func (b *Business) UnmarshalJSON(data []byte) error {
	type plain Business
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Testimonials == nil {
		p.Testimonials = []string{}
	}
	*b = Business(p)
	return nil
}

// ThemeCount is a single entry of a ThemeSummary.
type ThemeCount struct {
	Theme string
	Count int
}

// ThemeSummary is an ordered theme -> count mapping. It encodes as a JSON
// object whose keys keep the slice order.
type ThemeSummary []ThemeCount

// Count returns the count recorded for theme, or 0.
func (s ThemeSummary) Count(theme string) int {
	for _, tc := range s {
		if tc.Theme == theme {
			return tc.Count
		}
	}
	return 0
}

// Map returns the summary as a plain (unordered) map.
func (s ThemeSummary) Map() map[string]int {
	m := make(map[string]int, len(s))
	for _, tc := range s {
		m[tc.Theme] = tc.Count
	}
	return m
}

func (s ThemeSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(tc.Theme)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(tc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ThemeSummary) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("themes_summary: expected object, got %v", tok)
	}
	out := ThemeSummary{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("themes_summary: expected key, got %v", kt)
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("themes_summary %q: %w", key, err)
		}
		out = append(out, ThemeCount{Theme: key, Count: n})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// CategoryResult is the per-category document handed to persistence.
type CategoryResult struct {
	Category  string     `json:"category"`
	Top10     []Business `json:"top_10"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RefreshLog records the outcome of one full refresh run.
type RefreshLog struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"timestamp"`
	Status     string    `json:"status"` // success|partial
	Details    string    `json:"details"`
}

const (
	RefreshSuccess = "success"
	RefreshPartial = "partial"
)

// Strip applies Business.Strip to every entry of the top list.
func (c *CategoryResult) Strip() {
	for i := range c.Top10 {
		c.Top10[i].Strip()
	}
}
