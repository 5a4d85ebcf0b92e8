package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Totarae/golinks/internal/model"
)

const (
	// MaxPageSize верхняя граница размера страницы.
	MaxPageSize = 100
	// timeLayout фиксированной ширины, поэтому лексикографический порядок
	// совпадает с хронологическим.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	// ErrNotFound ссылка с таким ключом отсутствует.
	ErrNotFound = errors.New("golink not found")
	// ErrAlreadyExists ссылка с таким short_link уже есть.
	ErrAlreadyExists = errors.New("golink already exists")
	// ErrBackend сбой хранилища нижнего уровня.
	ErrBackend = errors.New("storage backend error")
)

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

// Storage определяет контракт хранилища ссылок. Все реализации обязаны
// одинаково сортировать, пагинировать и классифицировать ошибки.
type Storage interface {
	// Create атомарно проверяет уникальность short_link и сохраняет ссылку.
	Create(ctx context.Context, golink model.Golink) error
	// Get возвращает ссылку по ключу или ErrNotFound.
	Get(ctx context.Context, shortLink string) (model.Golink, error)
	// GetAll возвращает все ссылки, новые первыми.
	GetAll(ctx context.Context) ([]model.Golink, error)
	// GetPaginated возвращает окно выдачи GetAll и общее количество ссылок.
	GetPaginated(ctx context.Context, page, pageSize int) ([]model.Golink, int, error)
	// Update меняет URL и возвращает обновлённую ссылку или ErrNotFound.
	Update(ctx context.Context, shortLink, url string) (model.Golink, error)
	// Delete удаляет ссылку или возвращает ErrNotFound.
	Delete(ctx context.Context, shortLink string) error
	// Exists сообщает, есть ли ссылка с таким ключом.
	Exists(ctx context.Context, shortLink string) (bool, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
	// Close освобождает ресурсы хранилища.
	Close() error
}

// Fault оборачивает ошибку движка в ErrBackend, сохраняя её в цепочке.
func Fault(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

// ClampPage приводит параметры страницы к допустимым значениям
// и возвращает смещение первой записи.
func ClampPage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// смещение насыщается, чтобы огромный номер страницы давал пустую выдачу
	if page-1 > math.MaxInt/pageSize {
		return page, pageSize, math.MaxInt
	}
	return page, pageSize, (page - 1) * pageSize
}

// SortNewestFirst сортирует ссылки по убыванию created_at,
// при равенстве по убыванию short_link, как ORDER BY в SQL-хранилищах.
func SortNewestFirst(golinks []model.Golink) {
	sort.Slice(golinks, func(i, j int) bool {
		a, b := golinks[i], golinks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ShortLink > b.ShortLink
	})
}

// EncodeTime переводит время в текстовое представление для SQL-хранилищ.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// DecodeTime разбирает время, сохранённое EncodeTime.
func DecodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// записи, сделанные сторонними клиентами
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}
