// Command console is the command-line front end of the voucher admin
// console. It keeps its session in a file between invocations.
//
//	console login -u manager -p voucher-demo
//	console list vouchers -campaign cmp-spring
//	console export customers -o ./exports
//	console -mock list campaigns
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ignite/voucher-console/internal/apiclient"
	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/console"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/querycache"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: console [flags] <command> [args]

commands:
  login   -u USER [-p PASSWORD]      sign in (password also read from VOUCHER_PASSWORD)
  logout                             sign out and forget the session
  whoami                             show the signed-in user
  list    RESOURCE [filters]         list campaigns, vouchers, customers or logs
  get     RESOURCE ID                show one record as JSON
  stats   RESOURCE                   show aggregate statistics as JSON
  export  RESOURCE [-o DIR]          write every matching record to a CSV file
  qr      CODE [-o FILE] [-url]      write a voucher's QR code as PNG
  redeem  CODE -order ID             redeem a voucher against an order

flags:
`

func main() {
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config file")
	mock := fs.Bool("mock", false, "serve requests from in-process mock data instead of the API")
	baseURL := fs.String("api", "", "API base URL (overrides config)")
	verbose := fs.Bool("v", false, "log debug output")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger.SetLevel(logger.WARN)
	if *verbose {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal(err)
	}
	if *baseURL != "" {
		cfg.Console.APIBaseURL = *baseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, cleanup, err := setup(ctx, cfg, *mock, os.Stderr)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	cmd := &commands{console: c, out: os.Stdout}
	if err := cmd.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		cleanup()
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		fatal(err)
	}
}

// setup builds the console over the configured API, or over in-process mock
// data. Notifications go to notes.
func setup(ctx context.Context, cfg *config.Config, mock bool, notes io.Writer) (*console.Console, func(), error) {
	session := console.NewSession(console.NewFileSessionStore(cfg.Console.SessionFile))
	if err := session.Hydrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	opts := []apiclient.Option{apiclient.WithTokenSource(session), apiclient.WithChannel("cli")}
	base := cfg.Console.APIBaseURL
	if mock {
		h, _, err := app.NewMockHandler(time.Now())
		if err != nil {
			return nil, nil, err
		}
		base = "http://mock.local"
		opts = append(opts, apiclient.WithHTTPClient(apiclient.InProcess(h)))
	}
	client, err := apiclient.New(base, opts...)
	if err != nil {
		return nil, nil, err
	}

	cache, closeStore, err := newCache(ctx, cfg.Console, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	c := console.New(client, session, console.Options{
		Cache:     cache,
		StaleTime: cfg.Console.StaleTime,
		Notifier: notify.Func(func(n notify.Notification) {
			fmt.Fprintf(notes, "%s: %s\n", n.Level, n.Message)
		}),
	})
	return c, func() {
		c.Close()
		closeStore()
	}, nil
}

func newCache(ctx context.Context, cfg config.ConsoleConfig, rc config.RedisConfig) (*querycache.Cache, func(), error) {
	opts := querycache.Options{StaleTime: cfg.StaleTime}
	if cfg.CacheBackend != "redis" {
		return querycache.New(querycache.NewMemoryStore(0), opts), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect redis cache %s: %w", rc.Addr, err)
	}
	store := querycache.NewRedisStore(rdb, cfg.CachePrefix, 0)
	return querycache.New(store, opts), func() { rdb.Close() }, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", notify.MessageFrom(err, err.Error()))
	os.Exit(1)
}
