// Package memory реализует хранилище ссылок в памяти процесса.
package memory

import (
	"context"
	"sync"

	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/storage"
)

// Store provides a thread-safe golink storage.
// Один RWMutex покрывает всё пространство ключей: чтения идут параллельно,
// любая запись держит эксклюзивный доступ на всю операцию проверки и изменения.
type Store struct {
	mutex sync.RWMutex
	data  map[string]model.Golink
}

var _ storage.Storage = (*Store)(nil)

// New initializes an empty Store.
func New() *Store {
	return &Store{data: make(map[string]model.Golink)}
}

// Create stores a golink unless its short link is already taken.
func (s *Store) Create(_ context.Context, golink model.Golink) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[golink.ShortLink]; exists {
		return storage.ErrAlreadyExists
	}
	s.data[golink.ShortLink] = golink
	return nil
}

// Get retrieves a golink by its short link.
func (s *Store) Get(_ context.Context, shortLink string) (model.Golink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	golink, exists := s.data[shortLink]
	if !exists {
		return model.Golink{}, storage.ErrNotFound
	}
	return golink, nil
}

// GetAll returns every golink, newest first.
func (s *Store) GetAll(_ context.Context) ([]model.Golink, error) {
	return s.snapshot(), nil
}

// GetPaginated сортирует весь набор и вырезает окно. Хранилище ограничено
// памятью процесса, большие наборы сюда не попадают.
func (s *Store) GetPaginated(_ context.Context, page, pageSize int) ([]model.Golink, int, error) {
	all := s.snapshot()
	total := len(all)

	_, pageSize, offset := storage.ClampPage(page, pageSize)
	if offset >= total {
		return []model.Golink{}, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	window := make([]model.Golink, end-offset)
	copy(window, all[offset:end])
	return window, total, nil
}

// Update replaces the destination URL of an existing golink.
func (s *Store) Update(_ context.Context, shortLink, url string) (model.Golink, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	golink, exists := s.data[shortLink]
	if !exists {
		return model.Golink{}, storage.ErrNotFound
	}
	golink.URL = url
	s.data[shortLink] = golink
	return golink, nil
}

// Delete removes a golink.
func (s *Store) Delete(_ context.Context, shortLink string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[shortLink]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, shortLink)
	return nil
}

// Exists reports whether the short link is taken.
func (s *Store) Exists(_ context.Context, shortLink string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.data[shortLink]
	return exists, nil
}

// Ping всегда успешен.
func (s *Store) Ping(context.Context) error { return nil }

// Close ничего не освобождает.
func (s *Store) Close() error { return nil }

// Len возвращает количество ссылок.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

func (s *Store) snapshot() []model.Golink {
	s.mutex.RLock()
	all := make([]model.Golink, 0, len(s.data))
	for _, golink := range s.data {
		all = append(all, golink)
	}
	s.mutex.RUnlock()

	storage.SortNewestFirst(all)
	return all
}
