// Package sqlite реализует долговременное хранилище ссылок в файле SQLite.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite" // Pure go SQLite driver
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/storage"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS golinks (
	id TEXT PRIMARY KEY,
	short_link TEXT UNIQUE NOT NULL,
	url TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

const orderNewestFirst = "created_at DESC, short_link DESC"

// record строка таблицы golinks.
type record struct {
	ID        string `gorm:"column:id;primaryKey"`
	ShortLink string `gorm:"column:short_link"`
	URL       string `gorm:"column:url"`
	Created   string `gorm:"column:created_at"`
}

func (record) TableName() string { return "golinks" }

func toRecord(g model.Golink) record {
	return record{
		ID:        g.ID,
		ShortLink: g.ShortLink,
		URL:       g.URL,
		Created:   storage.EncodeTime(g.CreatedAt),
	}
}

func (r record) golink() (model.Golink, error) {
	created, err := storage.DecodeTime(r.Created)
	if err != nil {
		return model.Golink{}, err
	}
	return model.Golink{ID: r.ID, ShortLink: r.ShortLink, URL: r.URL, CreatedAt: created}, nil
}

// Store хранилище ссылок поверх GORM и SQLite в режиме WAL.
type Store struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger
}

var _ storage.Storage = (*Store)(nil)

// Open открывает (или создаёт) базу по пути path и идемпотентно создаёт таблицу.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: resolve path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory for %q: %w", abs, err)
	}

	// WAL: читатели не блокируются писателем; busy_timeout сглаживает
	// конкуренцию писателей за блокировку файла.
	dsn := abs + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", abs, err)
	}

	s := &Store{db: db, path: abs, logger: log}
	if err := s.db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("sqlite: create table: %w", err)
	}
	log.Info("SQLite storage ready", zap.String("path", abs))
	return s, nil
}

// Path возвращает абсолютный путь к файлу базы.
func (s *Store) Path() string { return s.path }

// Create вставляет ссылку. Уникальность short_link обеспечивает сам движок.
func (s *Store) Create(ctx context.Context, golink model.Golink) error {
	rec := toRecord(golink)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return storage.Fault("sqlite create", err)
}

// Get возвращает ссылку по ключу.
func (s *Store) Get(ctx context.Context, shortLink string) (model.Golink, error) {
	return s.get(s.db.WithContext(ctx), shortLink)
}

func (s *Store) get(tx *gorm.DB, shortLink string) (model.Golink, error) {
	var rec record
	err := tx.Where("short_link = ?", shortLink).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Golink{}, storage.ErrNotFound
		}
		return model.Golink{}, storage.Fault("sqlite get", err)
	}
	golink, err := rec.golink()
	if err != nil {
		return model.Golink{}, storage.Fault("sqlite get", err)
	}
	return golink, nil
}

// GetAll возвращает все ссылки, новые первыми.
func (s *Store) GetAll(ctx context.Context) ([]model.Golink, error) {
	var recs []record
	if err := s.db.WithContext(ctx).Order(orderNewestFirst).Find(&recs).Error; err != nil {
		return nil, storage.Fault("sqlite get all", err)
	}
	return toGolinks(recs, "sqlite get all")
}

// GetPaginated выполняет два независимых чтения: окно LIMIT/OFFSET и COUNT(*).
// При конкурентных записях общее количество может кратковременно
// расходиться с окном; это допустимо.
func (s *Store) GetPaginated(ctx context.Context, page, pageSize int) ([]model.Golink, int, error) {
	_, pageSize, offset := storage.ClampPage(page, pageSize)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&record{}).Count(&total).Error; err != nil {
		return nil, 0, storage.Fault("sqlite count", err)
	}
	if int64(offset) >= total {
		return []model.Golink{}, int(total), nil
	}

	var recs []record
	err := db.Order(orderNewestFirst).Limit(pageSize).Offset(offset).Find(&recs).Error
	if err != nil {
		return nil, 0, storage.Fault("sqlite get paginated", err)
	}
	golinks, err := toGolinks(recs, "sqlite get paginated")
	if err != nil {
		return nil, 0, err
	}
	return golinks, int(total), nil
}

// Update меняет URL и перечитывает запись в той же транзакции.
func (s *Store) Update(ctx context.Context, shortLink, url string) (model.Golink, error) {
	var updated model.Golink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&record{}).Where("short_link = ?", shortLink).Update("url", url)
		if res.Error != nil {
			return storage.Fault("sqlite update", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		var err error
		updated, err = s.get(tx, shortLink)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrBackend) {
			return model.Golink{}, err
		}
		return model.Golink{}, storage.Fault("sqlite update", err)
	}
	return updated, nil
}

// Delete удаляет ссылку.
func (s *Store) Delete(ctx context.Context, shortLink string) error {
	res := s.db.WithContext(ctx).Where("short_link = ?", shortLink).Delete(&record{})
	if res.Error != nil {
		return storage.Fault("sqlite delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Exists проверяет наличие ссылки.
func (s *Store) Exists(ctx context.Context, shortLink string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&record{}).Where("short_link = ?", shortLink).Count(&count).Error
	if err != nil {
		return false, storage.Fault("sqlite exists", err)
	}
	return count > 0, nil
}

// Ping проверяет соединение с базой.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storage.Fault("sqlite ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.Fault("sqlite ping", err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toGolinks(recs []record, op string) ([]model.Golink, error) {
	golinks := make([]model.Golink, 0, len(recs))
	for _, rec := range recs {
		golink, err := rec.golink()
		if err != nil {
			return nil, storage.Fault(op, err)
		}
		golinks = append(golinks, golink)
	}
	return golinks, nil
}

// isUniqueViolation распознаёт нарушение ограничения уникальности.
// Диалект переводит его в gorm.ErrDuplicatedKey; текст ошибки движка
// проверяется на случай, если перевод не сработал.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
