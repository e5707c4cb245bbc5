package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "tenmunches/internal/adapters/http_server"
	"tenmunches/internal/adapters/observability"
	redisad "tenmunches/internal/adapters/redis"
	"tenmunches/internal/app"
	"tenmunches/internal/bootstrap"
	"tenmunches/internal/shared"
	mysqlrepo "tenmunches/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := bootstrap.OpenMySQL(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	h := &server.Handlers{Q: q}

	// refresh is optional: without a Places key the API serves stored data only
	var sched *app.Scheduler
	if svc, catalog, err := bootstrap.RefreshService(cfg, repo, cache); err != nil {
		log.Warn().Err(err).Msg("refresh disabled")
	} else {
		sched = app.NewScheduler(svc, repo, catalog.Categories, cfg.RefreshInterval)
		h.R = sched
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("scheduler stopped")
			}
		}()
	}

	// http
	srv := server.New(cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if sched != nil {
		sched.Stop() // cancels a running refresh and waits for it
	}
}
