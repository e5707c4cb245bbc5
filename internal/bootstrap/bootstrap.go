// Package bootstrap wires adapters shared by the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"tenmunches/internal/adapters/cloudinary"
	"tenmunches/internal/adapters/places"
	"tenmunches/internal/analysis"
	"tenmunches/internal/app"
	"tenmunches/internal/domain"
	"tenmunches/internal/shared"
	mysqlrepo "tenmunches/internal/storage/mysql"
)

// OpenMySQL opens and pings the database.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// RefreshService builds the refresh path from configuration and returns it
// with the category catalog to refresh.
func RefreshService(cfg shared.Config, repo *mysqlrepo.Repo, cache domain.Cache) (*app.RefreshService, shared.Catalog, error) {
	catalog, err := shared.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, catalog, err
	}
	if cfg.SearchLocation != "" && cfg.CatalogFile == "" {
		catalog.Location = cfg.SearchLocation
	}

	src, err := places.New(cfg.PlacesBase, cfg.GoogleAPIKey, catalog.Location, cfg.PlacesRPS)
	if err != nil {
		return nil, catalog, err
	}
	pipe, err := analysis.NewPipeline(analysis.Options{
		Strategy:        cfg.ThemeStrategy,
		TopK:            cfg.TopK,
		MaxTestimonials: cfg.MaxTestimonials,
	})
	if err != nil {
		return nil, catalog, err
	}

	svc := app.NewRefreshService(src, photoStore(cfg), repo, cache, pipe, app.RefreshOptions{
		MaxPlaces: cfg.MaxPlaces,
		Workers:   cfg.Workers,
	})
	log.Info().
		Str("location", catalog.Location).
		Int("categories", len(catalog.Categories)).
		Str("themes", string(cfg.ThemeStrategy)).
		Msg("refresh configured")
	return svc, catalog, nil
}

// photoStore returns nil when Cloudinary is not configured; the provider
// photo URLs are then kept as is.
func photoStore(cfg shared.Config) domain.PhotoStore {
	if !cfg.CloudinaryEnabled() {
		log.Warn().Msg("cloudinary not configured, keeping provider photo URLs")
		return nil
	}
	c, err := cloudinary.New("", cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret)
	if err != nil {
		log.Warn().Err(err).Msg("cloudinary disabled")
		return nil
	}
	return c
}
