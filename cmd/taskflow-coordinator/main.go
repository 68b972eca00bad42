package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/config"
	"github.com/dmitrymomot/taskflow/core/coordinator"
	"github.com/dmitrymomot/taskflow/core/health"
	"github.com/dmitrymomot/taskflow/core/logger"
	"github.com/dmitrymomot/taskflow/core/server"
	"github.com/dmitrymomot/taskflow/core/taskstore"
	"github.com/dmitrymomot/taskflow/integration/database/pg"
	"github.com/dmitrymomot/taskflow/integration/database/redis"
	"github.com/dmitrymomot/taskflow/migrations"
)

type appConfig struct {
	OpsAddr    string `env:"OPS_ADDR" envDefault:":9090"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"3"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		appCfg    appConfig
		pgCfg     pg.Config
		brokerCfg broker.Config
		coordCfg  coordinator.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&brokerCfg)
	config.MustLoad(&coordCfg)

	log := logger.New(logger.WithProduction("taskflow-coordinator"))
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

	store, err := taskstore.New(pool, taskstore.WithMaxRetries(appCfg.MaxRetries))
	if err != nil {
		log.ErrorContext(ctx, "task store init failed", logger.Error(err))
		os.Exit(1)
	}

	coord, err := coordinator.NewFromConfig(coordCfg, store, brokers,
		coordinator.WithLogger(log),
	)
	if err != nil {
		log.ErrorContext(ctx, "coordinator init failed", logger.Error(err))
		os.Exit(1)
	}

	ops, err := server.New(appCfg.OpsAddr, server.WithLogger(log))
	if err != nil {
		log.ErrorContext(ctx, "ops server init failed", logger.Error(err))
		os.Exit(1)
	}
	opsRoutes := health.Routes(log,
		health.Check{Name: "database", Probe: pg.Healthcheck(pool)},
		health.Check{Name: "redis", Probe: brokers.Healthcheck},
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(coord.Run(ctx))
	eg.Go(ops.Run(ctx, opsRoutes))

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "application error", logger.Error(err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Application stopped")
}
