// Package main provides the wilderness encounter simulator. It rolls a batch
// of encounters for one terrain and prints each encounter's total EHD.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encountersim/internal/config"
	"github.com/cory-johannsen/encountersim/internal/game/dice"
	"github.com/cory-johannsen/encountersim/internal/game/encounter"
	"github.com/cory-johannsen/encountersim/internal/game/table"
	"github.com/cory-johannsen/encountersim/internal/observability"
	"github.com/cory-johannsen/encountersim/internal/scripting"
	"github.com/cory-johannsen/encountersim/internal/sim"
	"github.com/cory-johannsen/encountersim/internal/storage/postgres"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "OED Wilderness Encounter Simulator")
	fmt.Fprintln(w, "----------------------------------")
	fmt.Fprintln(w, "Usage: encountersim [-config file] [-n encounters] [-seed seed] terrain")
	fmt.Fprintln(w)
}

// run executes one simulation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("encountersim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	configPath := fs.String("config", "configs/dev.yaml", "path to configuration file")
	n := fs.Int("n", 0, "number of encounters (0 = simulation.encounters)")
	seed := fs.Int64("seed", 0, "random seed (overrides simulation.seed when set)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		printUsage(stderr)
		return exitUsage
	}
	terrain := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return exitError
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			cfg.Simulation.Encounters = *n
		case "seed":
			cfg.Simulation.Seed = *seed
		}
	})
	if cfg.Simulation.Encounters < 1 {
		fmt.Fprintf(stderr, "encounter count must be >= 1, got %d\n", cfg.Simulation.Encounters)
		return exitUsage
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "initializing logger: %v\n", err)
		return exitError
	}
	defer logger.Sync() //nolint:errcheck

	resolver, cleanup, err := buildResolver(ctx, cfg, logger)
	if err != nil {
		logger.Error("building resolver", zap.Error(err))
		return exitError
	}
	defer cleanup()

	out := bufio.NewWriter(stdout)
	simulator := sim.NewSimulator(resolver, logger)
	_, runErr := simulator.Run(ctx, terrain, cfg.Simulation.Encounters, out)
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flushing output: %w", err)
	}
	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, sim.ErrUnknownTerrain):
		fmt.Fprintf(stderr, "Unknown terrain: %s\n", terrain)
		printUsage(stderr)
		return exitUsage
	default:
		logger.Error("simulation failed", zap.Error(runErr))
		return exitError
	}
}

// buildResolver loads tables, rules and hooks and assembles the resolver.
//
// Postcondition: cleanup is always non-nil and releases any pool or Lua VM.
func buildResolver(ctx context.Context, cfg config.Config, logger *zap.Logger) (*encounter.Resolver, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	src := dice.Initialize(cfg.Simulation.Seed)
	roller := dice.NewLoggedRoller(src, logger)

	var store table.Store
	switch cfg.Tables.Source {
	case config.SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		closers = append(closers, pool.Close)
		store = postgres.NewTableRepository(pool.DB())
	default:
		store = table.DirStore{Dir: cfg.Tables.Dir}
	}

	tables, err := loadTables(ctx, store, cfg.Tables)
	if err != nil {
		return nil, cleanup, err
	}

	rules := encounter.DefaultRules()
	if cfg.Rules.File != "" {
		if rules, err = encounter.LoadRules(cfg.Rules.File); err != nil {
			return nil, cleanup, err
		}
	}

	opts := []encounter.Option{
		encounter.WithRules(rules),
		encounter.WithColumns(encounter.Columns{
			Number:  cfg.Monsters.NumberCol,
			HitDice: cfg.Monsters.HitDiceCol,
			EHD:     cfg.Monsters.EHDCol,
		}),
	}
	if cfg.Scripting.Dir != "" {
		mgr := scripting.NewManager(roller, logger)
		closers = append(closers, mgr.Close)
		if err := mgr.Load(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			return nil, cleanup, fmt.Errorf("loading scripts: %w", err)
		}
		opts = append(opts, encounter.WithHooks(mgr))
	}

	resolver, err := encounter.NewResolver(tables, roller, logger, opts...)
	if err != nil {
		return nil, cleanup, err
	}
	logger.Info("resolver ready",
		zap.String("source", cfg.Tables.Source),
		zap.Int("terrains", tables.Terrain.NumCols()),
		zap.Int("monsters", tables.Monsters.NumRows()),
		zap.Bool("scripting", cfg.Scripting.Dir != ""),
	)
	return resolver, cleanup, nil
}

func loadTables(ctx context.Context, store table.Store, cfg config.TablesConfig) (encounter.Tables, error) {
	var out encounter.Tables
	dst := []**table.Table{&out.Terrain, &out.Subtable, &out.Monsters}
	for i, name := range cfg.Names() {
		t, err := store.Load(ctx, name)
		if err != nil {
			return encounter.Tables{}, fmt.Errorf("loading table %s: %w", name, err)
		}
		*dst[i] = t
	}
	return out, nil
}
