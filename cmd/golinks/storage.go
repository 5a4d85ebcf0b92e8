package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/config"
	"github.com/Totarae/golinks/internal/storage"
	"github.com/Totarae/golinks/internal/storage/memory"
	"github.com/Totarae/golinks/internal/storage/postgres"
	"github.com/Totarae/golinks/internal/storage/sqlite"
)

// openStorage выбирает хранилище один раз при старте. Если постоянное хранилище
// не открылось, при fallback_to_memory работа продолжается в памяти.
// Возвращает хранилище и имя фактического бэкенда.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, string, error) {
	store, err := openBackend(ctx, cfg, logger)
	if err == nil {
		return store, cfg.StorageBackend, nil
	}
	if !cfg.FallbackToMemory {
		return nil, "", err
	}

	logger.Warn("Durable storage unavailable, falling back to in-memory storage; data will not survive a restart",
		zap.String("backend", cfg.StorageBackend),
		zap.Error(err),
	)
	return memory.New(), config.BackendMemory, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage")
		return memory.New(), nil
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath, logger)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.DatabaseDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// memoryLen возвращает число ссылок, если хранилище живёт в памяти.
func memoryLen(s storage.Storage) (int, bool) {
	m, ok := s.(*memory.Store)
	if !ok {
		return 0, false
	}
	return m.Len(), true
}
