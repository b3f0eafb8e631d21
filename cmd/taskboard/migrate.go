package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	mongodb "github.com/workmanagement/taskboard/internal/infrastructure/db/mongo"
	"github.com/workmanagement/taskboard/internal/pkg/config"
	"github.com/workmanagement/taskboard/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the MongoDB indexes",
		Long: `Create every MongoDB index the service relies on.

Index creation is idempotent; serve runs the same step on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), Service: "taskboard"})

			client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}
			log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ready")
			return nil
		},
	}
}
