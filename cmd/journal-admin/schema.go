package main

import (
	"journal-reframer/pkg/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the users table and its constraints if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := postgres.EnsureSchema(cmd.Context(), e.db); err != nil {
				return err
			}
			e.logger.Info("Schema is up to date", zap.Int("statements", len(postgres.Schema)))
			return nil
		},
	}
}
