package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskflow/core/api"
	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/config"
	"github.com/dmitrymomot/taskflow/core/health"
	"github.com/dmitrymomot/taskflow/core/logger"
	"github.com/dmitrymomot/taskflow/core/server"
	"github.com/dmitrymomot/taskflow/core/taskstore"
	"github.com/dmitrymomot/taskflow/integration/database/pg"
	"github.com/dmitrymomot/taskflow/integration/database/redis"
	"github.com/dmitrymomot/taskflow/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pgCfg     pg.Config
		brokerCfg broker.Config
		srvCfg    server.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&brokerCfg)
	config.MustLoad(&srvCfg)

	log := logger.New(logger.WithProduction("taskflow-api"))
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.ErrorContext(ctx, "postgres connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
		log.ErrorContext(ctx, "migrations failed", logger.Error(err))
		os.Exit(1)
	}

	// The API never enqueues; the broker connections exist only so
	// readiness reports queue connectivity alongside the database.
	highClient, err := redis.Connect(ctx, redis.DefaultConfig(brokerCfg.HighURL()))
	if err != nil {
		log.ErrorContext(ctx, "high broker connection failed", logger.Error(err))
		os.Exit(1)
	}
	lowClient, err := redis.Connect(ctx, redis.DefaultConfig(brokerCfg.LowURL()))
	if err != nil {
		log.ErrorContext(ctx, "low broker connection failed", logger.Error(err))
		os.Exit(1)
	}

	high, err := broker.New(highClient, broker.WithLabel("high"))
	if err != nil {
		log.ErrorContext(ctx, "high broker init failed", logger.Error(err))
		os.Exit(1)
	}
	low, err := broker.New(lowClient, broker.WithLabel("low"))
	if err != nil {
		log.ErrorContext(ctx, "low broker init failed", logger.Error(err))
		os.Exit(1)
	}
	brokers, err := broker.NewPair(high, low)
	if err != nil {
		log.ErrorContext(ctx, "broker pair init failed", logger.Error(err))
		os.Exit(1)
	}
	defer brokers.Close()

	store, err := taskstore.New(pool)
	if err != nil {
		log.ErrorContext(ctx, "task store init failed", logger.Error(err))
		os.Exit(1)
	}

	handler, err := api.New(store,
		api.WithLogger(log),
		api.WithReadiness(
			health.Check{Name: "database", Probe: pg.Healthcheck(pool)},
			health.Check{Name: "redis", Probe: brokers.Healthcheck},
		),
	)
	if err != nil {
		log.ErrorContext(ctx, "api init failed", logger.Error(err))
		os.Exit(1)
	}

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		log.ErrorContext(ctx, "server init failed", logger.Error(err))
		os.Exit(1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(srv.Run(ctx, handler.Router()))

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "application error", logger.Error(err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Application stopped")
}
