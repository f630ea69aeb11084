package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

const createTracking = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	dirFlag := flag.String("dir", "", "migrations directory (overrides config)")
	listOnly := flag.Bool("list", false, "list applied migrations and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("[migrate] failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		logger.Error("[migrate] DATABASE_URL is required")
		os.Exit(1)
	}
	dir := cfg.Database.MigrationsDir
	if *dirFlag != "" {
		dir = *dirFlag
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.URL, 2, 1)
	if err != nil {
		logger.Error("[migrate] connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTracking); err != nil {
		logger.Error("[migrate] create tracking table", "error", err)
		os.Exit(1)
	}

	if *listOnly {
		var names []string
		if err := db.SelectContext(ctx, &names, `SELECT name FROM schema_migrations ORDER BY name`); err != nil {
			logger.Error("[migrate] list", "error", err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(" ", n)
		}
		fmt.Printf("Total: %d applied\n", len(names))
		return
	}

	applied, failed, err := migrate(ctx, db, dir)
	if err != nil {
		logger.Error("[migrate] failed", "error", err)
		os.Exit(1)
	}
	logger.Info("[migrate] done", "applied", applied, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// migrate applies every .sql file in dir that is not yet recorded, each in
// its own transaction, in name order.
func migrate(ctx context.Context, db *sqlx.DB, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var done []string
	if err := db.SelectContext(ctx, &done, `SELECT name FROM schema_migrations`); err != nil {
		return 0, 0, fmt.Errorf("read applied migrations: %w", err)
	}
	seen := make(map[string]bool, len(done))
	for _, n := range done {
		seen[n] = true
	}

	var ok, failed int
	for _, f := range files {
		if seen[f] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return ok, failed, err
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := apply(ctx, db, f, string(data)); err != nil {
			logger.Error("[migrate] migration failed", "file", f, "error", err)
			failed++
			continue
		}
		logger.Info("[migrate] applied", "file", f)
		ok++
	}
	return ok, failed, nil
}

func apply(ctx context.Context, db *sqlx.DB, name, content string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, content); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}
