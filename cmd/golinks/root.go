package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/config"
)

// app общее состояние команд: конфигурация и логгер
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) init(flags *pflag.FlagSet) error {
	cfg, err := config.Load(viper.New(), flags)
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	logger, err := newLogger(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	logger.Info("Инициализация конфигурации",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("grpc_address", cfg.GRPCAddress),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Bool("durable", cfg.Durable()),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.Bool("database_dsn_set", cfg.DatabaseDSN != ""),
		zap.Bool("fallback_to_memory", cfg.FallbackToMemory),
	)
	return nil
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "golinks",
		Short: "Реестр коротких ссылок go/<name>",
		Long: `golinks хранит короткие псевдонимы вида go/<name> и целевые URL
и предоставляет HTTP API для их создания, чтения, изменения, удаления и выдачи списком.
Без подкоманды запускает сервер.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Flags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(a), newMigrateCmd(a))
	return root
}
