package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/voucher-console/internal/api"
	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/delivery"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/storage"
	"github.com/ignite/voucher-console/internal/worker"
)

const devSecret = "voucher-console-dev-secret"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("[server] failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info("[server] starting voucher API", "env", cfg.Environment, "data", cfg.Data.Source, "addr", cfg.Server.Addr())

	if err := run(cfg); err != nil {
		logger.Error("[server] exited with error", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	deliverer, err := newDeliverer(ctx, cfg.Delivery)
	if err != nil {
		return err
	}

	publisher := app.NewPublisher(cfg.Events)
	defer publisher.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("[server] JWT_SECRET not set, using the development secret")
		secret = devSecret
	}
	tokens := auth.NewManager(secret, cfg.Auth.TokenTTL)
	go tokens.RunPruner(ctx, cfg.Auth.PruneInterval)

	role, err := domain.ParseRole(cfg.Auth.DefaultRole)
	if err != nil {
		return err
	}

	services := app.NewServices(backend.Repos, app.Options{
		Tokens:      tokens,
		Publisher:   publisher,
		Deliverer:   deliverer,
		Images:      store,
		CodeSecret:  secret,
		DefaultRole: role,
	})
	services.Vouchers.SetExpiryBatch(cfg.Worker.BatchSize)

	// The memory source is private to this process, so the sweeper has to
	// run here instead of in cmd/worker.
	if backend.Memory != nil {
		sweeper := worker.NewExpirySweeper(services.Vouchers, services.Campaigns, nil, cfg.Worker.Schedule)
		if err := sweeper.Start(); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	health := api.NewHealthChecker(backend.Pinger(), backend.RedisClient(), store)
	limiter := auth.NewLoginLimiter(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst)
	server := api.NewServer(cfg.Server, services.Handlers(tokens, limiter, health))

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("[server] shutting down", "signal", sig.String())
	case err := <-errc:
		return err
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[server] stopped")
	return nil
}

// newDeliverer sends grants through Twilio and SES when configured and
// records them otherwise.
func newDeliverer(ctx context.Context, cfg config.DeliveryConfig) (*delivery.Dispatcher, error) {
	templates, err := delivery.NewTemplates(map[string]string{
		delivery.TemplateSMS:          cfg.Templates.SMS,
		delivery.TemplateEmailSubject: cfg.Templates.EmailSubject,
		delivery.TemplateEmailBody:    cfg.Templates.EmailBody,
	})
	if err != nil {
		return nil, err
	}

	var senders []delivery.Sender
	if cfg.Twilio.AccountSID != "" {
		senders = append(senders, delivery.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From))
		logger.Info("[server] sms delivery enabled", "from", logger.RedactPhone(cfg.Twilio.From))
	}
	if cfg.SES.From != "" {
		ses, err := delivery.NewSESSender(ctx, cfg.SES.Region, cfg.SES.Profile, cfg.SES.From)
		if err != nil {
			return nil, err
		}
		senders = append(senders, ses)
		logger.Info("[server] email delivery enabled", "region", cfg.SES.Region)
	}
	if len(senders) == 0 {
		logger.Warn("[server] no delivery provider configured, grants are only logged")
		return delivery.NewDispatcher(templates, &delivery.Noop{}), nil
	}
	return delivery.NewDispatcher(templates, delivery.NewMulti(senders...)), nil
}
