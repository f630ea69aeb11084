package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ignite/voucher-console/internal/api"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/events"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/ignite/voucher-console/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Backend holds the opened data stores.
type Backend struct {
	Repos Repos
	// SQL is nil for the memory source.
	SQL *sqlx.DB
	// Redis is nil when no address is configured.
	Redis *redis.Client
	// Memory is nil for the postgres source.
	Memory *memory.DB
}

// OpenBackend connects the data source selected by cfg and, when configured,
// Redis. The memory source is seeded with mock data.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	switch cfg.Data.Source {
	case config.SourcePostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		b.SQL = db
		b.Repos = PostgresRepos(db)
		logger.Info("[app] connected to postgres", "max_open_conns", cfg.Database.MaxOpenConns)
	default:
		db := memory.New()
		if err := memory.Seed(db, time.Now()); err != nil {
			return nil, fmt.Errorf("seed mock data: %w", err)
		}
		b.Memory = db
		b.Repos = MemoryRepos(db)
		logger.Warn("[app] using in-memory mock data, changes are lost on restart")
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			rdb.Close()
			b.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		b.Redis = rdb
		logger.Info("[app] connected to redis", "addr", cfg.Redis.Addr)
	}
	return b, nil
}

// DB returns the raw SQL handle, or nil.
func (b *Backend) DB() *sql.DB {
	if b.SQL == nil {
		return nil
	}
	return b.SQL.DB
}

// Pinger returns the database health probe target, or nil.
func (b *Backend) Pinger() api.Pinger {
	if b.SQL == nil {
		return nil
	}
	return b.SQL
}

// RedisClient returns Redis as an interface value that is nil when Redis is
// not configured.
func (b *Backend) RedisClient() redis.UniversalClient {
	if b.Redis == nil {
		return nil
	}
	return b.Redis
}

// Close releases every connection.
func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	if b.SQL != nil {
		errs = append(errs, b.SQL.Close())
	}
	return errors.Join(errs...)
}

// NewPublisher returns a Kafka publisher for cfg, or events.Noop when no
// brokers are configured.
func NewPublisher(cfg config.EventsConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.Noop{}
	}
	host, _ := os.Hostname()
	logger.Info("[app] publishing voucher logs to kafka", "topic", cfg.Topic, "brokers", len(cfg.Brokers))
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, host, cfg.BufferSize)
}
