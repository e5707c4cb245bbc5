package app

import (
	"fmt"
	"strings"

	"tenmunches/internal/domain"
)

const anonymousAuthor = "Anonymous"

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// lookupFloat returns the JSON number at path, or nil.
func lookupFloat(m map[string]any, path string) *float64 {
	if f, ok := lookupAny(m, path).(float64); ok {
		return &f
	}
	return nil
}

// lookupStrings accepts []any holding either strings or {name} objects.
func lookupStrings(m map[string]any, path string) []string {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			if n, ok := t["name"].(string); ok && n != "" {
				out = append(out, n)
			}
		}
	}
	return out
}

func floatOr0(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

/********** place mapping **********/

// mapPlace normalizes a Places details payload. photoURL turns a photo
// resource name into a fetchable URL.
func mapPlace(p map[string]any, photoURL func(name string) string) domain.Business {
	b := domain.Business{
		ID:         lookupStr(p, "id"),
		Name:       lookupStr(p, "displayName.text"),
		Rating:     floatOr0(lookupFloat(p, "rating")),
		Address:    lookupStr(p, "formattedAddress"),
		Categories: lookupStrings(p, "types"),
		URL:        lookupStr(p, "googleMapsUri"),
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if n := lookupFloat(p, "userRatingCount"); n != nil {
		b.ReviewCount = int(*n)
	}
	if photos := lookupStrings(p, "photos"); len(photos) > 0 && photoURL != nil {
		b.PhotoURL = photoURL(photos[0])
	}

	raw, _ := p["reviews"].([]any)
	b.Reviews = make([]domain.Review, 0, len(raw))
	for _, it := range raw {
		r, ok := it.(map[string]any)
		if !ok {
			continue
		}
		b.Reviews = append(b.Reviews, mapReview(r))
	}
	return b
}

func mapReview(r map[string]any) domain.Review {
	author := strings.TrimSpace(lookupStr(r, "authorAttribution.displayName"))
	if author == "" {
		author = anonymousAuthor
	}
	return domain.Review{
		Author: author,
		Rating: lookupFloat(r, "rating"),
		Text:   reviewText(r["text"]),
		Time:   lookupStr(r, "relativePublishTimeDescription"),
	}
}

// reviewText accepts {"text": "..."} objects as well as bare values.
func reviewText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		s, _ := t["text"].(string)
		return s
	default:
		return fmt.Sprint(t)
	}
}
