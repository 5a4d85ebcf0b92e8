package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/storage"
)

const (
	// DefaultPage страница по умолчанию в постраничном режиме.
	DefaultPage = 1
	// DefaultPageSize размер страницы по умолчанию.
	DefaultPageSize = 10
)

var shortLinkPattern = regexp.MustCompile(`^go/[a-zA-Z0-9_-]+$`)

// CreateInput данные для создания ссылки.
type CreateInput struct {
	ShortLink string
	URL       string
}

// UpdateInput данные для изменения ссылки.
type UpdateInput struct {
	URL string
}

// ListQuery параметры выдачи. Если задан хотя бы один указатель, выдача постраничная.
type ListQuery struct {
	Page     *int
	PageSize *int
}

// ListResult результат List. Pagination равен nil в непостраничном режиме.
type ListResult struct {
	Items      []model.Golink
	Pagination *model.PaginationInfo
}

// GolinkService бизнес-логика реестра ссылок поверх storage.Storage.
type GolinkService struct {
	store  storage.Storage
	logger *zap.Logger
	clock  *monotonicClock
}

// NewGolinkService создаёт сервис над выбранным хранилищем.
func NewGolinkService(store storage.Storage, logger *zap.Logger) *GolinkService {
	return newGolinkService(store, logger, time.Now)
}

func newGolinkService(store storage.Storage, logger *zap.Logger, now func() time.Time) *GolinkService {
	return &GolinkService{
		store:  store,
		logger: logger,
		clock:  newMonotonicClock(now),
	}
}

// ValidatePattern проверяет формат short_link: go/<name>, где name из [a-zA-Z0-9_-].
func ValidatePattern(shortLink string) error {
	if !shortLinkPattern.MatchString(shortLink) {
		return &ValidationError{
			Reason: fmt.Sprintf("Invalid short link format: %q must match go/<name> with letters, digits, '_' or '-'", shortLink),
		}
	}
	return nil
}

func validateURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Reason: "URL must not be empty"}
	}
	return nil
}

// Create валидирует данные и сохраняет новую ссылку.
// Пустой или состоящий из пробелов URL отклоняется ValidationError.
func (s *GolinkService) Create(ctx context.Context, in CreateInput) (model.Golink, error) {
	if err := ValidatePattern(in.ShortLink); err != nil {
		return model.Golink{}, err
	}
	if err := validateURL(in.URL); err != nil {
		return model.Golink{}, err
	}

	golink := model.Golink{
		ID:        uuid.NewString(),
		ShortLink: in.ShortLink,
		URL:       in.URL,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Create(ctx, golink); err != nil {
		return model.Golink{}, s.translate("create", in.ShortLink, err)
	}

	s.logger.Debug("Golink created", zap.String("short_link", golink.ShortLink), zap.String("id", golink.ID))
	return golink, nil
}

// Get возвращает ссылку по ключу.
func (s *GolinkService) Get(ctx context.Context, shortLink string) (model.Golink, error) {
	golink, err := s.store.Get(ctx, shortLink)
	if err != nil {
		return model.Golink{}, s.translate("get", shortLink, err)
	}
	return golink, nil
}

// Exists сообщает, зарегистрирована ли ссылка.
func (s *GolinkService) Exists(ctx context.Context, shortLink string) (bool, error) {
	ok, err := s.store.Exists(ctx, shortLink)
	if err != nil {
		return false, s.translate("exists", shortLink, err)
	}
	return ok, nil
}

// List возвращает ссылки, новые первыми, целиком или одной страницей.
func (s *GolinkService) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.Page == nil && q.PageSize == nil {
		items, err := s.store.GetAll(ctx)
		if err != nil {
			return ListResult{}, s.translate("list", "", err)
		}
		if items == nil {
			items = []model.Golink{}
		}
		return ListResult{Items: items}, nil
	}

	page, pageSize := DefaultPage, DefaultPageSize
	if q.Page != nil {
		page = *q.Page
	}
	if q.PageSize != nil {
		pageSize = *q.PageSize
	}
	page, pageSize, _ = storage.ClampPage(page, pageSize)

	items, total, err := s.store.GetPaginated(ctx, page, pageSize)
	if err != nil {
		return ListResult{}, s.translate("list", "", err)
	}
	if items == nil {
		items = []model.Golink{}
	}

	return ListResult{
		Items: items,
		Pagination: &model.PaginationInfo{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

// Update меняет URL существующей ссылки.
// Пустой или состоящий из пробелов URL отклоняется ValidationError.
func (s *GolinkService) Update(ctx context.Context, shortLink string, in UpdateInput) (model.Golink, error) {
	if err := validateURL(in.URL); err != nil {
		return model.Golink{}, err
	}
	golink, err := s.store.Update(ctx, shortLink, in.URL)
	if err != nil {
		return model.Golink{}, s.translate("update", shortLink, err)
	}
	return golink, nil
}

// Delete удаляет ссылку.
func (s *GolinkService) Delete(ctx context.Context, shortLink string) error {
	if err := s.store.Delete(ctx, shortLink); err != nil {
		return s.translate("delete", shortLink, err)
	}
	s.logger.Debug("Golink deleted", zap.String("short_link", shortLink))
	return nil
}

// Ping проверяет доступность хранилища.
func (s *GolinkService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return s.translate("ping", "", err)
	}
	return nil
}

// translate переводит ошибки хранилища в ошибки сервиса.
func (s *GolinkService) translate(op, shortLink string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrConflict
	default:
		s.logger.Error("Storage failure",
			zap.String("op", op),
			zap.String("short_link", shortLink),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w: %w", op, ErrBackendFailure, err)
	}
}
