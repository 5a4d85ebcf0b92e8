package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/storage"
	"github.com/Totarae/golinks/internal/storage/sqlite"
	"github.com/Totarae/golinks/internal/storage/storagetest"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return openStore(t, filepath.Join(t.TempDir(), "golinks.db"))
	})
}

// Тест создания недостающих каталогов
func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "golinks.db")
	store := openStore(t, path)
	defer store.Close()

	assert.True(t, filepath.IsAbs(store.Path()))
	_, err := os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestOpen_RelativePathResolved(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	store := openStore(t, filepath.Join("data", "golinks.db"))
	defer store.Close()

	resolved, err := filepath.EvalSymlinks(filepath.Join(dir, "data"))
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, resolved, actual)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ", zap.NewNop())
	assert.Error(t, err)
}

// Данные переживают повторное открытие, создание таблицы идемпотентно
func TestStore_Durable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "golinks.db")

	first := openStore(t, path)
	golink := storagetest.Golink("persist", 1)
	require.NoError(t, first.Create(ctx, golink))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	defer second.Close()

	got, err := second.Get(ctx, golink.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, golink, got)

	err = second.Create(ctx, storagetest.Golink("persist", 2))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// Закрытое хранилище возвращает сбой бэкенда, а не NotFound или дубликат
func TestStore_ClosedIsBackendFault(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "golinks.db"))
	require.NoError(t, store.Close())

	err := store.Create(ctx, storagetest.Golink("late", 1))
	assert.ErrorIs(t, err, storage.ErrBackend)
	assert.NotErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.Get(ctx, "go/late")
	assert.ErrorIs(t, err, storage.ErrBackend)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
