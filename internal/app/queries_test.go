package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenmunches/internal/app"
	"tenmunches/internal/domain"
)

func seeded() *fakeStore {
	s := newFakeStore()
	s.cats["coffee"] = domain.CategoryResult{
		Category: "coffee",
		Top10: []domain.Business{{
			ID:            "a",
			Name:          "Place a",
			ThemesSummary: domain.ThemeSummary{{Theme: "taste", Count: 2}},
			Testimonials:  []string{"Great"},
		}},
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	return s
}

func TestListCategories_NoData(t *testing.T) {
	q := app.NewQueryService(newFakeStore(), newFakeCache(), time.Minute)
	_, err := q.ListCategories(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestListCategories_CacheMissThenHit(t *testing.T) {
	store := seeded()
	cache := newFakeCache()
	q := app.NewQueryService(store, cache, time.Minute)

	first, err := q.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, cache.has("categories:all"))

	second, err := q.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.reads, "second call must be served from cache")
}

func TestGetCategory(t *testing.T) {
	store := seeded()
	cache := newFakeCache()
	q := app.NewQueryService(store, cache, time.Minute)
	ctx := context.Background()

	_, err := q.GetCategory(ctx, "sushi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, cache.has("category:sushi"))

	c, err := q.GetCategory(ctx, "Coffee")
	require.NoError(t, err)
	assert.Equal(t, "coffee", c.Category)
	assert.Equal(t, 2, c.Top10[0].ThemesSummary.Count("taste"))
	assert.True(t, cache.has("category:coffee"))

	reads := store.reads
	_, err = q.GetCategory(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, reads, store.reads)
}

func TestQueryService_NilCache(t *testing.T) {
	q := app.NewQueryService(seeded(), nil, time.Minute)
	_, err := q.GetCategory(context.Background(), "coffee")
	assert.NoError(t, err)
	assert.NoError(t, q.InvalidateCategories(context.Background(), "coffee"))
}

func TestHealth(t *testing.T) {
	store := seeded()
	q := app.NewQueryService(store, nil, time.Minute)

	h := q.Health(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Database)
	assert.Nil(t, h.LastRefresh)

	require.NoError(t, store.LogRefresh(context.Background(), domain.RefreshLog{ID: "r1", Status: domain.RefreshSuccess}))
	h = q.Health(context.Background())
	require.NotNil(t, h.LastRefresh)
	assert.Equal(t, "r1", h.LastRefresh.ID)

	store.pingErr = errors.New("connection refused")
	h = q.Health(context.Background())
	assert.Equal(t, "db_unreachable", h.Status)
	assert.Equal(t, "disconnected", h.Database)
}

func TestInvalidateCategories(t *testing.T) {
	cache := newFakeCache()
	ctx := context.Background()
	for _, k := range []string{"categories:all", "category:coffee", "category:pizza"} {
		require.NoError(t, cache.Set(ctx, k, 1, 60))
	}
	q := app.NewQueryService(newFakeStore(), cache, time.Minute)

	require.NoError(t, q.InvalidateCategories(ctx, "coffee"))
	assert.False(t, cache.has("categories:all"))
	assert.False(t, cache.has("category:coffee"))
	assert.True(t, cache.has("category:pizza"))
}
