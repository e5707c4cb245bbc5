package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"tenmunches/internal/adapters/observability"
	"tenmunches/internal/bootstrap"
	"tenmunches/internal/shared"
	mysqlrepo "tenmunches/internal/storage/mysql"
)

// export writes every stored category to a static JSON file for CDN serving.
func main() {
	out := flag.String("out", filepath.Join("public", "data", "categories.json"), "output file")
	flag.Parse()

	cfg, err := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	ctx := context.Background()

	db, err := bootstrap.OpenMySQL(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	cats, err := mysqlrepo.New(db).ListCategories(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list categories failed")
	}
	if len(cats) == 0 {
		log.Fatal().Msg("no categories stored, run a refresh first")
	}

	b, err := json.Marshal(cats)
	if err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir failed")
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}
	log.Info().Str("path", *out).Int("categories", len(cats)).
		Float64("size_kb", float64(len(b))/1024).Msg("export complete")
}
