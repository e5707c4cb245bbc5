package domain

// Review is a single customer review of a business. Sentiment and Themes are
// nil until the review has been enriched.
type Review struct {
	Author    string   `json:"author"`
	Rating    *float64 `json:"rating,omitempty"`
	Text      string   `json:"text"`
	Time      string   `json:"time"` // provider display string, passthrough
	Sentiment *float64 `json:"sentiment,omitempty"`
	Themes    []string `json:"themes,omitempty"`
}

// Polarity returns the enriched sentiment, or 0 when the review was never enriched.
func (r Review) Polarity() float64 {
	if r.Sentiment == nil {
		return 0
	}
	return *r.Sentiment
}
