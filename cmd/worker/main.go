package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/pkg/distlock"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("[worker] failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.Data.Source != config.SourcePostgres {
		logger.Error("[worker] the expiry worker needs the postgres data source; the server sweeps memory data itself")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		logger.Error("[worker] failed to open backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	publisher := app.NewPublisher(cfg.Events)
	defer publisher.Close()

	services := app.NewServices(backend.Repos, app.Options{CodeSecret: cfg.Auth.JWTSecret, Publisher: publisher})
	services.Vouchers.SetExpiryBatch(cfg.Worker.BatchSize)

	rdb, sqlDB := backend.RedisClient(), backend.DB()
	newLock := func() distlock.Lock {
		return distlock.New(rdb, sqlDB, worker.SweepLockKey, cfg.Worker.LockTTL)
	}
	sweeper := worker.NewExpirySweeper(services.Vouchers, services.Campaigns, newLock, cfg.Worker.Schedule)

	if *once {
		res, err := sweeper.RunOnce(ctx)
		if err != nil {
			logger.Error("[worker] sweep failed", "error", err)
			os.Exit(1)
		}
		logger.Info("[worker] sweep finished", "skipped", res.Skipped, "vouchers", res.Vouchers, "campaigns", res.Campaigns)
		return
	}

	if err := sweeper.Start(); err != nil {
		logger.Error("[worker] failed to start sweeper", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("[worker] shutting down", "signal", sig.String())
	sweeper.Stop()
}
