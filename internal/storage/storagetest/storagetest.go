// Package storagetest содержит общий набор проверок контракта storage.Storage.
// Каждая реализация хранилища прогоняет его в своих тестах.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/storage"
)

// Factory возвращает новое пустое хранилище для одного подтеста.
type Factory func(t *testing.T) storage.Storage

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Golink строит ссылку go/<name>, созданную через seq миллисекунд после base.
func Golink(name string, seq int) model.Golink {
	return model.Golink{
		ID:        uuid.NewString(),
		ShortLink: "go/" + name,
		URL:       "https://example.com/" + name,
		CreatedAt: base.Add(time.Duration(seq) * time.Millisecond),
	}
}

// Run прогоняет все проверки контракта.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"CreateDuplicate", testCreateDuplicate},
		{"GetMissing", testGetMissing},
		{"Update", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"DeleteMissing", testDeleteMissing},
		{"Exists", testExists},
		{"GetAllOrder", testGetAllOrder},
		{"GetAllEmpty", testGetAllEmpty},
		{"PaginationExample", testPaginationExample},
		{"PaginationClamp", testPaginationClamp},
		{"PaginationHugePage", testPaginationHugePage},
		{"PaginationCoversListing", testPaginationCoversListing},
		{"ConcurrentCreate", testConcurrentCreate},
		{"ConcurrentDuplicateCreate", testConcurrentDuplicateCreate},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustCreate(t *testing.T, s storage.Storage, golinks ...model.Golink) {
	t.Helper()
	for _, g := range golinks {
		require.NoError(t, s.Create(context.Background(), g))
	}
}

func shortLinks(golinks []model.Golink) []string {
	out := make([]string, 0, len(golinks))
	for _, g := range golinks {
		out = append(out, g.ShortLink)
	}
	return out
}

func testCreateAndGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	g := Golink("docs", 1)
	mustCreate(t, s, g)

	first, err := s.Get(ctx, g.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, g, first)

	second, err := s.Get(ctx, g.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func testCreateDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	g := Golink("dup", 1)
	mustCreate(t, s, g)

	again := Golink("dup", 2)
	again.URL = "https://other.example.com"
	err := s.Create(ctx, again)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := s.Get(ctx, g.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, g.URL, got.URL)
	assert.Equal(t, g.ID, got.ID)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testGetMissing(t *testing.T, s storage.Storage) {
	_, err := s.Get(context.Background(), "go/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	g := Golink("wiki", 1)
	mustCreate(t, s, g)

	updated, err := s.Update(ctx, g.ShortLink, "https://wiki.example.com/new")
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com/new", updated.URL)
	assert.Equal(t, g.ID, updated.ID)
	assert.Equal(t, g.ShortLink, updated.ShortLink)
	assert.True(t, g.CreatedAt.Equal(updated.CreatedAt))

	got, err := s.Get(ctx, g.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func testUpdateMissing(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.Update(ctx, "go/ghost", "https://example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := s.Exists(ctx, "go/ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	g := Golink("tmp", 1)
	mustCreate(t, s, g)

	require.NoError(t, s.Delete(ctx, g.ShortLink))
	_, err := s.Get(ctx, g.ShortLink)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// после удаления ключ снова свободен
	mustCreate(t, s, Golink("tmp", 2))
}

func testDeleteMissing(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, Golink("keep", 1))

	err := s.Delete(ctx, "go/absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testExists(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, Golink("here", 1))

	ok, err := s.Exists(ctx, "go/here")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "go/there")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testGetAllOrder(t *testing.T, s storage.Storage) {
	// вставка не по порядку создания
	mustCreate(t, s, Golink("b", 2), Golink("a", 1), Golink("d", 4), Golink("c", 3))

	// одинаковое время создания: порядок по short_link по убыванию
	tieA, tieB := Golink("tie-a", 5), Golink("tie-b", 5)
	mustCreate(t, s, tieA, tieB)

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go/tie-b", "go/tie-a", "go/d", "go/c", "go/b", "go/a"}, shortLinks(all))
}

func testGetAllEmpty(t *testing.T, s storage.Storage) {
	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	page, total, err := s.GetPaginated(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func testPaginationExample(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, Golink("a", 1), Golink("b", 2), Golink("c", 3))

	page, total, err := s.GetPaginated(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"go/c", "go/b"}, shortLinks(page))

	page, total, err = s.GetPaginated(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"go/a"}, shortLinks(page))

	page, total, err = s.GetPaginated(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}

func testPaginationClamp(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	for i := 0; i < 105; i++ {
		mustCreate(t, s, Golink(fmt.Sprintf("l%03d", i), i))
	}

	page, total, err := s.GetPaginated(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 105, total)
	assert.Equal(t, []string{"go/l104"}, shortLinks(page))

	page, _, err = s.GetPaginated(ctx, -3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"go/l104"}, shortLinks(page))

	page, _, err = s.GetPaginated(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Len(t, page, storage.MaxPageSize)

	page, total, err = s.GetPaginated(ctx, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, 105, total)
	assert.Len(t, page, 5)
}

func testPaginationHugePage(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, Golink("a", 1), Golink("b", 2), Golink("c", 3))

	page, total, err := s.GetPaginated(ctx, math.MaxInt, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, total, err = s.GetPaginated(ctx, math.MaxInt/2, storage.MaxPageSize)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}

func testPaginationCoversListing(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	sizes := []int{1, 3, 10, 64, 100}
	created := 0
	for _, n := range []int{0, 1, 17, 101, 250} {
		for ; created < n; created++ {
			mustCreate(t, s, Golink(fmt.Sprintf("p%03d", created), created))
		}

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, n)

		for _, size := range sizes {
			var joined []model.Golink
			for page := 1; ; page++ {
				window, total, err := s.GetPaginated(ctx, page, size)
				require.NoError(t, err)
				require.Equal(t, n, total)
				if len(window) == 0 {
					break
				}
				require.LessOrEqual(t, len(window), size)
				joined = append(joined, window...)
			}
			assert.Equal(t, shortLinks(all), shortLinks(joined), "n=%d size=%d", n, size)
		}
	}
}

func testConcurrentCreate(t *testing.T, s storage.Storage) {
	const n = 64
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Create(ctx, Golink(fmt.Sprintf("c%02d", i), i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func testConcurrentDuplicateCreate(t *testing.T, s storage.Storage) {
	const n = 16
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := Golink("race", i)
			g.URL = fmt.Sprintf("https://example.com/%d", i)
			err := s.Create(ctx, g)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, storage.ErrAlreadyExists):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
}

func testPing(t *testing.T, s storage.Storage) {
	assert.NoError(t, s.Ping(context.Background()))
}
