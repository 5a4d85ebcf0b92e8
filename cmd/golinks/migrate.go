package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/config"
	"github.com/Totarae/golinks/internal/storage/postgres"
	"github.com/Totarae/golinks/internal/storage/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Создаёт схему постоянного хранилища и завершает работу",
		Long: `Подключается к настроенному постоянному хранилищу (SQLite или PostgreSQL)
и идемпотентно создаёт таблицу golinks. Для хранилища в памяти ничего не делает.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.migrate(cmd)
		},
	}
}

func (a *app) migrate(cmd *cobra.Command) error {
	switch a.cfg.StorageBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cmd.Context(), a.cfg.SQLitePath, a.logger)
		if err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("close sqlite: %w", err)
		}
	case config.BackendPostgres:
		if err := postgres.Migrate(a.cfg.DatabaseDSN, a.logger); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	default:
		a.logger.Info("In-memory storage has no schema, nothing to migrate")
		return nil
	}

	a.logger.Info("Migrations applied", zap.String("backend", a.cfg.StorageBackend))
	cmd.Println("Migrations applied successfully.")
	return nil
}
