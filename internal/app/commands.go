package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tenmunches/internal/adapters/observability"
	"tenmunches/internal/analysis"
	"tenmunches/internal/domain"
)

// RefreshService rebuilds category rankings from the place data source.
type RefreshService struct {
	places   domain.PlaceDataSource
	photos   domain.PhotoStore // optional
	store    domain.CategoryStore
	cache    domain.Cache // optional
	pipeline *analysis.Pipeline

	maxPlaces int
	workers   int
	running   atomic.Bool
	now       func() time.Time
}

type RefreshOptions struct {
	MaxPlaces int
	Workers   int
}

// NewRefreshService wires the refresh path. photos and cache may be nil.
func NewRefreshService(src domain.PlaceDataSource, photos domain.PhotoStore, store domain.CategoryStore,
	cache domain.Cache, p *analysis.Pipeline, opts RefreshOptions) *RefreshService {
	if opts.MaxPlaces <= 0 {
		opts.MaxPlaces = 20
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &RefreshService{
		places:    src,
		photos:    photos,
		store:     store,
		cache:     cache,
		pipeline:  p,
		maxPlaces: opts.MaxPlaces,
		workers:   opts.Workers,
		now:       time.Now,
	}
}

// Running reports whether a full refresh is in progress.
func (s *RefreshService) Running() bool { return s.running.Load() }

// ProcessCategory searches, fetches details, enriches and ranks one category.
// Places without an id or whose details cannot be fetched are skipped.
func (s *RefreshService) ProcessCategory(ctx context.Context, category string) (domain.CategoryResult, error) {
	l := log.With().Str("category", category).Logger()

	raw, err := s.places.SearchPlaces(ctx, category, s.maxPlaces)
	if err != nil {
		return domain.CategoryResult{}, err
	}

	businesses := make([]domain.Business, 0, len(raw))
	for _, place := range raw {
		id := lookupStr(place, "id")
		if id == "" {
			continue
		}
		details, err := s.places.GetPlaceDetails(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return domain.CategoryResult{}, ctx.Err()
			}
			l.Warn().Str("place_id", id).Err(err).Msg("details failed, skipping place")
			continue
		}

		b := mapPlace(details, s.places.PhotoMediaURL)
		if b.ID == "" {
			b.ID = id
		}
		s.pipeline.Prepare(&b)
		s.storePhoto(ctx, &b)
		businesses = append(businesses, b)
	}

	res := s.pipeline.Finalize(category, businesses)
	res.UpdatedAt = s.now().UTC()
	return res, nil
}

// storePhoto swaps the provider photo URL, which embeds the API key, for a
// CDN URL. On failure the photo is dropped.
func (s *RefreshService) storePhoto(ctx context.Context, b *domain.Business) {
	if s.photos == nil || b.PhotoURL == "" {
		return
	}
	u, err := s.photos.UploadPhoto(ctx, b.PhotoURL, b.ID)
	if err != nil {
		log.Warn().Str("place_id", b.ID).Err(err).Msg("photo upload failed")
		u = ""
	}
	b.PhotoURL = u
}

// RunFullRefresh processes categories concurrently, stores every successful
// result and records a refresh log. Failing categories do not abort the run;
// they turn the status into partial.
func (s *RefreshService) RunFullRefresh(ctx context.Context, categories []string) (domain.RefreshLog, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.RefreshLog{}, domain.ErrRefreshInProgress
	}
	defer s.running.Store(false)

	start := s.now()
	log.Info().Int("categories", len(categories)).Int("workers", s.workers).Msg("full refresh starting")

	errs := make([]error, len(categories))
	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup

	for i, category := range categories {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(categories); j++ {
				errs[j] = err
			}
			break
		}

		wg.Add(1)
		go func(i int, category string) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := s.ProcessCategory(ctx, category)
			if err == nil {
				err = s.store.UpsertCategory(ctx, res)
			}
			observability.ObserveCategory(category, err)
			if err != nil {
				errs[i] = err
				log.Warn().Str("category", category).Err(err).Msg("category refresh failed")
				return
			}
			log.Info().Str("category", category).Int("places", len(res.Top10)).Msg("category stored")
		}(i, category)
	}
	wg.Wait()

	finished := s.now()
	entry := domain.RefreshLog{
		ID:         uuid.NewString(),
		StartedAt:  start.UTC(),
		FinishedAt: finished.UTC(),
		Status:     domain.RefreshSuccess,
	}
	var lines []string
	for i, err := range errs {
		if err != nil {
			lines = append(lines, fmt.Sprintf("Error in '%s': %v", categories[i], err))
		}
	}
	if len(lines) > 0 {
		entry.Status = domain.RefreshPartial
	}
	entry.Details = fmt.Sprintf("Completed in %.1fs. Errors: %d", finished.Sub(start).Seconds(), len(lines))
	if len(lines) > 0 {
		entry.Details += "\n" + strings.Join(lines, "\n")
	}
	observability.ObserveRefresh(entry.Status, finished.Sub(start))

	if err := invalidateCategories(context.WithoutCancel(ctx), s.cache, categories); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}

	if err := s.store.LogRefresh(context.WithoutCancel(ctx), entry); err != nil {
		return entry, fmt.Errorf("log refresh: %w", err)
	}
	log.Info().Str("status", entry.Status).Int("errors", len(lines)).
		Dur("elapsed", finished.Sub(start)).Msg("full refresh complete")
	return entry, nil
}
