// Package places is a small Google Places API (v1) client.
package places

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tenmunches/internal/adapters/observability"
	"tenmunches/internal/domain"
)

const (
	searchFieldMask = "places.displayName,places.id,places.rating,places.userRatingCount," +
		"places.formattedAddress,places.types,places.photos"
	detailsFieldMask = "id,displayName,rating,userRatingCount,formattedAddress," +
		"types,reviews,photos,googleMapsUri"

	// maxPageSize is the provider's per-request limit for searchText.
	maxPageSize = 20
	photoWidth  = 800
	maxAttempts = 4
)

var (
	ErrUnauthorized = errors.New("places: unauthorized")
	ErrForbidden    = errors.New("places: forbidden")
)

type Client struct {
	base     string
	key      string
	location string
	hc       *http.Client
	rl       *rate.Limiter
}

// New builds a client for base (e.g. https://places.googleapis.com/v1).
// Searches are scoped to location ("<query> in <location>").
func New(base, key, location string, rps float64) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places: API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		key:      key,
		location: location,
		hc:       &http.Client{Timeout: 10 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// SearchPlaces runs a text search and returns at most max raw place objects.
func (c *Client) SearchPlaces(ctx context.Context, query string, max int) ([]map[string]any, error) {
	if max <= 0 {
		return []map[string]any{}, nil
	}
	text := query
	if c.location != "" {
		text = query + " in " + c.location
	}
	body := map[string]any{
		"textQuery":      text,
		"maxResultCount": min(max, maxPageSize),
	}
	var out struct {
		Places []map[string]any `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, c.base+"/places:searchText", "searchText", searchFieldMask, body, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if out.Places == nil {
		out.Places = []map[string]any{}
	}
	if len(out.Places) > max {
		out.Places = out.Places[:max]
	}
	return out.Places, nil
}

// GetPlaceDetails fetches details, reviews and photos for one place.
func (c *Client) GetPlaceDetails(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	u := c.base + "/places/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, u, "details", detailsFieldMask, nil, &out); err != nil {
		return nil, fmt.Errorf("details %s: %w", id, err)
	}
	return out, nil
}

// PhotoMediaURL builds the media URL for a photo resource name such as
// "places/ID/photos/REF". The URL embeds the API key.
func (c *Client) PhotoMediaURL(photoName string) string {
	if photoName == "" {
		return ""
	}
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("maxWidthPx", strconv.Itoa(photoWidth))
	return c.base + "/" + strings.TrimLeft(photoName, "/") + "/media?" + q.Encode()
}

// ---- Internals ----

// do performs one logical call with client-side rate limiting and retries on
// 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, method, u, endpoint, fieldMask string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return err
		}
		req.Header.Set("X-Goog-Api-Key", c.key)
		req.Header.Set("X-Goog-FieldMask", fieldMask)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "tenmunches/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("places", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, errorMessage(b))
		}
	}
	return lastErr
}

// errorMessage extracts error.message from a Google API error body, falling
// back to the raw text.
func errorMessage(b []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(b))
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
