package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenmunches/internal/analysis"
	"tenmunches/internal/app"
	"tenmunches/internal/domain"
)

func newPipeline(t *testing.T) *analysis.Pipeline {
	t.Helper()
	p, err := analysis.NewPipeline(analysis.Options{Strategy: analysis.StrategyKeyword})
	require.NoError(t, err)
	return p
}

func coffeeSource() *fakeSource {
	return &fakeSource{
		search: map[string][]map[string]any{
			"coffee": {{"id": "a"}, {"id": "b"}, {"id": ""}, {"id": "gone"}},
		},
		details: map[string]map[string]any{
			"a": place("a", 4.8, 900, "Delicious latte and friendly staff!", "A bit expensive."),
			"b": place("b", 4.0, 50, "Decent coffee."),
		},
	}
}

func TestProcessCategory_RanksAndStrips(t *testing.T) {
	photos := &fakePhotos{fail: map[string]bool{"b": true}}
	svc := app.NewRefreshService(coffeeSource(), photos, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{})

	res, err := svc.ProcessCategory(context.Background(), "coffee")
	require.NoError(t, err)

	assert.Equal(t, "coffee", res.Category)
	assert.False(t, res.UpdatedAt.IsZero())
	require.Len(t, res.Top10, 2)

	a, b := res.Top10[0], res.Top10[1]
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, "b", b.ID)
	assert.Equal(t, "https://cdn.example/a.jpg", a.PhotoURL)
	assert.Empty(t, b.PhotoURL, "failed upload must not leak the provider URL")
	assert.ElementsMatch(t, []string{"a", "b"}, photos.seen)

	for _, biz := range res.Top10 {
		assert.Nil(t, biz.Reviews)
		assert.Nil(t, biz.Score)
		assert.NotEmpty(t, biz.Testimonials)
		assert.LessOrEqual(t, len(biz.Testimonials), 3)
	}
	assert.Equal(t, "Delicious latte and friendly staff!", a.Testimonials[0])
	assert.Equal(t, 1, a.ThemesSummary.Count("taste"))
	assert.Equal(t, 1, a.ThemesSummary.Count("price"))
}

func TestProcessCategory_NoPhotoStoreKeepsProviderURL(t *testing.T) {
	svc := app.NewRefreshService(coffeeSource(), nil, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{})

	res, err := svc.ProcessCategory(context.Background(), "coffee")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Top10[0].PhotoURL, "https://places.example/v1/places/a/photos/p0/media"))
}

func TestProcessCategory_SearchFailure(t *testing.T) {
	src := &fakeSource{searchErr: map[string]error{"pizza": errors.New("quota exceeded")}}
	svc := app.NewRefreshService(src, nil, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{})

	_, err := svc.ProcessCategory(context.Background(), "pizza")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestProcessCategory_RespectsMaxPlaces(t *testing.T) {
	svc := app.NewRefreshService(coffeeSource(), nil, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{MaxPlaces: 1})

	res, err := svc.ProcessCategory(context.Background(), "coffee")
	require.NoError(t, err)
	require.Len(t, res.Top10, 1)
	assert.Equal(t, "a", res.Top10[0].ID)
}

func TestRunFullRefresh_Partial(t *testing.T) {
	src := coffeeSource()
	src.search["bbq"] = []map[string]any{{"id": "a"}}
	src.searchErr = map[string]error{"pizza": errors.New("boom")}
	store := newFakeStore()
	store.upErr["bbq"] = errors.New("disk full")
	cache := newFakeCache()
	require.NoError(t, cache.Set(context.Background(), "categories:all", []string{"stale"}, 60))
	require.NoError(t, cache.Set(context.Background(), "category:coffee", "stale", 60))

	svc := app.NewRefreshService(src, nil, store, cache, newPipeline(t), app.RefreshOptions{Workers: 2})
	entry, err := svc.RunFullRefresh(context.Background(), []string{"coffee", "pizza", "bbq"})
	require.NoError(t, err)

	assert.Equal(t, domain.RefreshPartial, entry.Status)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.FinishedAt.Before(entry.StartedAt))
	lines := strings.Split(entry.Details, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Completed in "))
	assert.True(t, strings.HasSuffix(lines[0], "s. Errors: 2"), lines[0])
	assert.Equal(t, "Error in 'pizza': boom", lines[1])
	assert.Equal(t, "Error in 'bbq': disk full", lines[2])

	_, err = store.GetCategory(context.Background(), "coffee")
	assert.NoError(t, err)
	_, err = store.GetCategory(context.Background(), "pizza")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, store.logCount())
	assert.False(t, cache.has("categories:all"))
	assert.False(t, cache.has("category:coffee"))
	assert.False(t, svc.Running())
}

func TestRunFullRefresh_Success(t *testing.T) {
	store := newFakeStore()
	svc := app.NewRefreshService(coffeeSource(), nil, store, nil, newPipeline(t), app.RefreshOptions{Workers: 4})

	entry, err := svc.RunFullRefresh(context.Background(), []string{"coffee"})
	require.NoError(t, err)
	assert.Equal(t, domain.RefreshSuccess, entry.Status)
	assert.NotContains(t, entry.Details, "\n")
	assert.True(t, strings.HasSuffix(entry.Details, "Errors: 0"))

	last, err := store.LastRefresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, entry.ID, last.ID)
}

func TestRunFullRefresh_OneAtATime(t *testing.T) {
	src := coffeeSource()
	src.block = make(chan struct{})
	svc := app.NewRefreshService(src, nil, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunFullRefresh(context.Background(), []string{"coffee"})
		done <- err
	}()
	require.Eventually(t, svc.Running, time.Second, 5*time.Millisecond)

	_, err := svc.RunFullRefresh(context.Background(), []string{"coffee"})
	assert.ErrorIs(t, err, domain.ErrRefreshInProgress)

	close(src.block)
	require.NoError(t, <-done)
	assert.False(t, svc.Running())
}

func TestRunFullRefresh_CanceledContext(t *testing.T) {
	store := newFakeStore()
	svc := app.NewRefreshService(coffeeSource(), nil, store, nil, newPipeline(t), app.RefreshOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry, err := svc.RunFullRefresh(ctx, []string{"coffee", "pizza"})
	require.NoError(t, err)
	assert.Equal(t, domain.RefreshPartial, entry.Status)
	assert.Contains(t, entry.Details, "Errors: 2")
	assert.Equal(t, 1, store.logCount())
}

func TestProcessCategory_PlaceWithoutReviewsEncodesEmptyTestimonials(t *testing.T) {
	src := &fakeSource{
		search:  map[string][]map[string]any{"tacos": {{"id": "a"}}},
		details: map[string]map[string]any{"a": place("a", 4.1, 12)},
	}
	svc := app.NewRefreshService(src, nil, newFakeStore(), nil, newPipeline(t), app.RefreshOptions{})

	res, err := svc.ProcessCategory(context.Background(), "tacos")
	require.NoError(t, err)
	require.Len(t, res.Top10, 1)

	out, err := json.Marshal(res.Top10[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"testimonials":[]`)
}
