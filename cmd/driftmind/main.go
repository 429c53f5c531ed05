// Command driftmind runs a single autonomous agent in a procedurally
// generated grid world, learning its own behavior cycle by cycle.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/driftmind/internal/config"
	"github.com/mkarlsen/driftmind/internal/persistence"
	"github.com/mkarlsen/driftmind/internal/sim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		cycles     int
		seed       int64
		dbPath     string
		noMemory   bool
	)

	cmd := &cobra.Command{
		Use:   "driftmind",
		Short: "Run the autonomous grid-world agent",
		Long: `driftmind simulates a single agent that explores a procedural
grid world, balancing its vitals and drives while learning from every
action it takes. Its memory persists across runs unless told otherwise.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cycles") {
				cfg.Cycles = cycles
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("db") {
				cfg.Persistence.Path = dbPath
			}
			return run(cfg, noMemory)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().IntVarP(&cycles, "cycles", "n", 100, "number of cycles to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "world generation seed")
	cmd.Flags().StringVar(&dbPath, "db", "driftmind.db", "path to the memory database")
	cmd.Flags().BoolVar(&noMemory, "no-memory", false, "run without persistent memory")

	return cmd
}

func run(cfg config.Config, noMemory bool) error {
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("driftmind starting",
		"seed", cfg.Seed,
		"cycles", cfg.Cycles,
		"world", fmt.Sprintf("%dx%d", cfg.World.Width, cfg.World.Height),
	)

	var db *persistence.DB
	if !noMemory {
		var err error
		db, err = persistence.Open(cfg.Persistence.Path)
		if err != nil {
			return fmt.Errorf("open memory db: %w", err)
		}
		defer db.Close()
		logger.Info("memory database opened", "path", cfg.Persistence.Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := sim.New(cfg, logger, db)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
