package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"restaurant_lives/internal/adapters/observability"
	redisad "restaurant_lives/internal/adapters/redis"
	"restaurant_lives/internal/adapters/socrata"
	"restaurant_lives/internal/app"
	"restaurant_lives/internal/domain"
	"restaurant_lives/internal/shared"
	mysqlrepo "restaurant_lives/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve(cfg.MetricsAddr)

	strategy, err := domain.ParseIDStrategy(cfg.IDStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid FEED_ID_STRATEGY")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Timezone).Msg("invalid FEED_TIMEZONE")
	}
	municipalities, err := cfg.Resolve()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid feed selection")
	}

	log.Info().
		Strs("municipalities", cfg.Municipalities).
		Str("strategy", string(strategy)).
		Str("tz", loc.String()).
		Str("dest", cfg.FeedDest).
		Int("workers", cfg.Workers).
		Bool("publish_db", cfg.PublishDB).
		Msg("ingestor starting")

	var (
		repo  domain.FeedRepository
		cache domain.Cache
	)
	if cfg.PublishDB {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		repo = mysqlrepo.New(db)
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	}

	svc := app.NewFeedService(socrata.New(cfg.SourceToken, cfg.SourceRPS), repo, cache, app.Options{
		Strategy:  strategy,
		Location:  loc,
		DestDir:   cfg.FeedDest,
		PublishDB: cfg.PublishDB,
	})

	if err := svc.RunAll(ctx, municipalities, cfg.Workers); err != nil {
		log.Error().Err(err).Msg("ingestion failed")
		os.Exit(1)
	}
	log.Info().Msg("ingestion completed")
}
