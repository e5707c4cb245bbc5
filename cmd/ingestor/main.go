package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"tenmunches/internal/adapters/observability"
	redisad "tenmunches/internal/adapters/redis"
	"tenmunches/internal/bootstrap"
	"tenmunches/internal/domain"
	"tenmunches/internal/shared"
	mysqlrepo "tenmunches/internal/storage/mysql"
)

// ingestor runs one full refresh of every catalog category and exits.
// Exit status is 1 on setup failure and 2 when some categories failed.
func main() {
	cfg, err := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	db, err := bootstrap.OpenMySQL(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	svc, catalog, err := bootstrap.RefreshService(cfg, repo, cache)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh setup failed")
	}

	entry, err := svc.RunFullRefresh(ctx, catalog.Categories)
	if err != nil {
		log.Error().Err(err).Msg("refresh failed")
		os.Exit(1)
	}
	log.Info().Str("status", entry.Status).Str("id", entry.ID).Msg("refresh completed")
	if entry.Status != domain.RefreshSuccess {
		os.Exit(2)
	}
}
