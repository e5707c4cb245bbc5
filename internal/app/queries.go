package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tenmunches/internal/domain"
)

const listKey = "categories:all"

func categoryKey(name string) string { return "category:" + strings.ToLower(name) }

// Health is the payload of the health endpoint.
type Health struct {
	Status      string             `json:"status"`   // ok|db_unreachable
	Database    string             `json:"database"` // connected|disconnected
	LastRefresh *domain.RefreshLog `json:"last_refresh"`
}

type QueryService struct {
	store    domain.CategoryStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.CategoryStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

// ListCategories returns every stored category. ErrNoData when none exist yet.
func (s *QueryService) ListCategories(ctx context.Context) ([]domain.CategoryResult, error) {
	var out []domain.CategoryResult
	if ok, _ := s.cacheGet(ctx, listKey, &out); ok {
		return out, nil
	}
	out, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrNoData
	}
	s.cacheSet(ctx, listKey, out)
	return out, nil
}

func (s *QueryService) GetCategory(ctx context.Context, name string) (domain.CategoryResult, error) {
	key := categoryKey(name)
	var c domain.CategoryResult
	if ok, _ := s.cacheGet(ctx, key, &c); ok {
		return c, nil
	}
	c, err := s.store.GetCategory(ctx, strings.ToLower(name))
	if err != nil {
		return domain.CategoryResult{}, err
	}
	s.cacheSet(ctx, key, c)
	return c, nil
}

// Health pings the store and reports the latest refresh. It never fails;
// an unreachable store is reported in the payload.
func (s *QueryService) Health(ctx context.Context) Health {
	h := Health{Status: "ok", Database: "connected"}
	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health: store ping failed")
		h.Status, h.Database = "db_unreachable", "disconnected"
		return h
	}
	last, err := s.store.LastRefresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("health: last refresh lookup failed")
	}
	h.LastRefresh = last
	return h
}

// InvalidateCategories drops the cached list and the given categories.
func (s *QueryService) InvalidateCategories(ctx context.Context, names ...string) error {
	return invalidateCategories(ctx, s.cache, names)
}

func invalidateCategories(ctx context.Context, cache domain.Cache, names []string) error {
	if cache == nil {
		return nil
	}
	keys := make([]string, 0, len(names)+1)
	keys = append(keys, listKey)
	for _, n := range names {
		keys = append(keys, categoryKey(n))
	}
	var errs []error
	for _, k := range keys {
		if err := cache.Del(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("del %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Debug().Str("key", key).Err(err).Msg("cache get failed")
	}
	return ok && err == nil, err
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Debug().Str("key", key).Err(err).Msg("cache set failed")
	}
}
