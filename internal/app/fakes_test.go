package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"tenmunches/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu      sync.Mutex
	cats    map[string]domain.CategoryResult
	logs    []domain.RefreshLog
	pingErr error
	upErr   map[string]error
	reads   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{cats: map[string]domain.CategoryResult{}, upErr: map[string]error{}}
}

func (f *fakeStore) UpsertCategory(ctx context.Context, c domain.CategoryResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upErr[c.Category]; err != nil {
		return err
	}
	f.cats[c.Category] = c
	return nil
}

func (f *fakeStore) LogRefresh(ctx context.Context, l domain.RefreshLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeStore) GetCategory(ctx context.Context, name string) (domain.CategoryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	c, ok := f.cats[name]
	if !ok {
		return domain.CategoryResult{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]domain.CategoryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	out := make([]domain.CategoryResult, 0, len(f.cats))
	for _, c := range f.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (f *fakeStore) LastRefresh(ctx context.Context) (*domain.RefreshLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logs) == 0 {
		return nil, nil
	}
	l := f.logs[len(f.logs)-1]
	return &l, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

// fakeCache stores JSON like the redis adapter so decoding is exercised.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// fakeSource serves canned search results and details per query / id.
type fakeSource struct {
	search    map[string][]map[string]any
	searchErr map[string]error
	details   map[string]map[string]any
	block     chan struct{} // when set, SearchPlaces waits on it
}

func (f *fakeSource) SearchPlaces(ctx context.Context, query string, max int) ([]map[string]any, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.searchErr[query]; err != nil {
		return nil, err
	}
	out := f.search[query]
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (f *fakeSource) GetPlaceDetails(ctx context.Context, id string) (map[string]any, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeSource) PhotoMediaURL(name string) string {
	return "https://places.example/v1/" + name + "/media?key=secret"
}

type fakePhotos struct {
	mu   sync.Mutex
	fail map[string]bool
	seen []string
}

func (f *fakePhotos) UploadPhoto(ctx context.Context, sourceURL, placeID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, placeID)
	if f.fail[placeID] {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example/" + placeID + ".jpg", nil
}

// place builds a details payload in the provider's shape.
func place(id string, rating float64, count int, reviews ...string) map[string]any {
	rs := make([]any, 0, len(reviews))
	for _, text := range reviews {
		rs = append(rs, map[string]any{
			"rating":                         5.0,
			"text":                           map[string]any{"text": text, "languageCode": "en"},
			"authorAttribution":              map[string]any{"displayName": "Sam"},
			"relativePublishTimeDescription": "a week ago",
		})
	}
	return map[string]any{
		"id":               id,
		"displayName":      map[string]any{"text": "Place " + id},
		"rating":           rating,
		"userRatingCount":  float64(count),
		"formattedAddress": "1 Main St",
		"types":            []any{"cafe", "food"},
		"googleMapsUri":    "https://maps.example/" + id,
		"photos":           []any{map[string]any{"name": "places/" + id + "/photos/p0"}},
		"reviews":          rs,
	}
}
