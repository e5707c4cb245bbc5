package domain

import "context"

// PlaceDataSource fetches raw place payloads from a place-search provider.
type PlaceDataSource interface {
	SearchPlaces(ctx context.Context, query string, max int) ([]map[string]any, error)
	GetPlaceDetails(ctx context.Context, id string) (map[string]any, error)
	PhotoMediaURL(photoName string) string
}

// PhotoStore re-hosts a provider photo and returns the public URL.
type PhotoStore interface {
	UploadPhoto(ctx context.Context, sourceURL, placeID string) (string, error)
}

type CategoryStore interface {
	// Write paths
	UpsertCategory(ctx context.Context, c CategoryResult) error
	LogRefresh(ctx context.Context, l RefreshLog) error

	// Read paths
	GetCategory(ctx context.Context, name string) (CategoryResult, error)
	ListCategories(ctx context.Context) ([]CategoryResult, error)
	LastRefresh(ctx context.Context) (*RefreshLog, error)
	Ping(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
