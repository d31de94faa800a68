package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"zerowaste/internal/app"
	"zerowaste/internal/config"
	"zerowaste/internal/database"
	"zerowaste/internal/seed"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	storeDriver string
	logLevel    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "zfwctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zfwctl",
		Short: "Zero food waste operator CLI",
		Long: `zfwctl works directly against the donation store: it applies the schema,
imports seed data and lets an operator act as an establishment or a food bank
from the terminal.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&storeDriver, "driver", "", "Store driver to use (postgres or memory); defaults to STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newDashboardCmd(),
		newTransitionCmd("accept", "Reserve an available donation for a food bank"),
		newTransitionCmd("cancel", "Release a reservation held by a food bank"),
		newTransitionCmd("complete", "Confirm pickup of a reserved donation"),
	)
	return cmd
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	if storeDriver != "" {
		os.Setenv("STORE_DRIVER", storeDriver)
	}
	if logLevel != "" {
		os.Setenv("LOG_LEVEL", logLevel)
	}
	cfg, err := config.LoadTooling()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	// Logs go to stderr so command output can be piped.
	return cfg, config.NewLogger(cfg.Logger).Output(zerolog.ConsoleWriter{Out: os.Stderr}), nil
}

func openApp(ctx context.Context) (*app.App, *config.Config, zerolog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, logger, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, logger, err
	}
	return a, cfg, logger, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StoreDriverPostgres {
				return fmt.Errorf("migrate requires the postgres driver, got %s", cfg.Store.Driver)
			}

			pool, err := database.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "seed [file...]",
		Short: "Import organizations and donations from seed files (defaults to SEED_FILES)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cfg, logger, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			importer := a.Importer(app.SeedLoader(ctx, cfg, logger), logger)

			var sum seed.Summary
			if sample {
				sum, err = importer.Apply(ctx, seed.Sample())
			} else {
				files := args
				if len(files) == 0 {
					files = cfg.Seed.Files
				}
				sum, err = importer.Import(ctx, files)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d organizations, %d donations (%d reserved, %d completed)\n",
				sum.Organizations, sum.Donations, sum.Reserved, sum.Completed)
			if sum.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %d donations, the store already holds donations\n", sum.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "Import the built-in sample data set instead of files")
	cmd.AddCommand(newSeedGenerateCmd())
	return cmd
}

func newSeedGenerateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the built-in sample data set as a seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := seed.Sample()
			if err := seed.WriteFile(out, batch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d organizations and %d donations to %s\n",
				len(batch.Organizations), len(batch.Donations), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "data/seed/sample.jsonl.gz", "Output path")
	return cmd
}
