// Command portfolioctl loads reference data and operates on portfolios
// directly against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-metrics/internal/config"
	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	logger.InitWithWriter(os.Stderr, cfg.LogLevel)

	register(commander, cfg, func(ctx context.Context) (domain.LedgerStore, func(), error) {
		return openStore(cfg)
	})

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// storeOpener opens the ledger a command runs against; the returned func releases it
type storeOpener func(ctx context.Context) (domain.LedgerStore, func(), error)

func register(c *subcommands.Commander, cfg *config.Config, open storeOpener) {
	c.Register(&loadCmd{open: open, strictWeights: cfg.StrictWeights, out: os.Stdout}, "data")
	c.Register(&bootstrapCmd{open: open, out: os.Stdout}, "holdings")
	c.Register(&tradeCmd{open: open, out: os.Stdout}, "holdings")
	c.Register(&metricsCmd{open: open, nameTTL: cfg.AssetNameCacheTTL, out: os.Stdout}, "reports")
}

func openStore(cfg *config.Config) (domain.LedgerStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.L.Warn("STORE=memory: changes are discarded when the command exits")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}
