package main

import (
	"context"
	"fmt"

	"journal-reframer/pkg/config"
	"journal-reframer/pkg/logger"
	"journal-reframer/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "journal-admin",
		Short:         "Maintenance tasks for the Journal Reframer database",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewSeedAdminCommand())
	rootCmd.AddCommand(NewSetStatusCommand())
	return rootCmd
}

// env is what every subcommand needs: configuration, a logger and a pool.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	appLogger := logger.Get()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: appLogger, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	logger.Sync()
}
