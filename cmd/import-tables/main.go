// Package main provides a loader that copies the CSV lookup tables into
// PostgreSQL so the simulator can run with tables.source=postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encountersim/internal/config"
	"github.com/cory-johannsen/encountersim/internal/game/table"
	"github.com/cory-johannsen/encountersim/internal/observability"
	"github.com/cory-johannsen/encountersim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "directory of <name>.csv tables (default tables.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	dir := cfg.Tables.Dir
	if *sourceDir != "" {
		dir = *sourceDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewTableRepository(pool.DB())
	for _, name := range cfg.Tables.Names() {
		t, err := table.LoadCSV(filepath.Join(dir, name+".csv"))
		if err != nil {
			logger.Fatal("reading table", zap.String("table", name), zap.Error(err))
		}
		if err := repo.Save(ctx, name, t); err != nil {
			logger.Fatal("saving table", zap.String("table", name), zap.Error(err))
		}
		logger.Info("table imported",
			zap.String("table", name),
			zap.Int("rows", t.NumRows()),
			zap.Int("cols", t.NumCols()),
		)
	}

	fmt.Fprintf(os.Stdout, "imported %d tables from %s [%s]\n",
		len(cfg.Tables.Names()), dir, time.Since(start).Round(time.Millisecond))
}
