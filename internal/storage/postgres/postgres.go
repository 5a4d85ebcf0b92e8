// Package postgres реализует хранилище ссылок в PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/database"
	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/storage"
)

const uniqueViolation = "23505"

const selectColumns = `SELECT id, short_link, url, created_at FROM golinks`

// COLLATE "C" даёт побайтовое сравнение, как в SQLite и в памяти
const orderNewestFirst = ` ORDER BY created_at DESC, short_link COLLATE "C" DESC`

//go:embed migrations/*.sql
var migrations embed.FS

// Store реализует storage.Storage поверх pgxpool.
type Store struct {
	DB *database.DB
}

var _ storage.Storage = (*Store)(nil)

// Open подключается к базе, применяет начальную схему и возвращает хранилище.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if err := Migrate(dsn, logger); err != nil {
		return nil, err
	}
	db, err := database.NewDB(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New создаёт хранилище поверх готового пула.
func New(db *database.DB) *Store {
	return &Store{DB: db}
}

// Migrate идемпотентно создаёт таблицу golinks.
func Migrate(dsn string, logger *zap.Logger) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	url, err := migrateURL(dsn)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("PostgreSQL schema is up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("PostgreSQL schema created")
	return nil
}

// migrateURL переводит postgres:// DSN в схему драйвера pgx5 для migrate.
func migrateURL(dsn string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme), nil
		}
	}
	return "", errors.New("database DSN must be a postgres:// URL")
}

// Create сохраняет ссылку; нарушение уникальности short_link означает дубликат.
func (s *Store) Create(ctx context.Context, golink model.Golink) error {
	query := `INSERT INTO golinks (id, short_link, url, created_at) VALUES ($1, $2, $3, $4)`

	_, err := s.DB.Pool.Exec(ctx, query,
		golink.ID, golink.ShortLink, golink.URL, storage.EncodeTime(golink.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}
		return storage.Fault("postgres create", err)
	}
	return nil
}

// Get извлекает ссылку по ключу.
func (s *Store) Get(ctx context.Context, shortLink string) (model.Golink, error) {
	row := s.DB.Pool.QueryRow(ctx, selectColumns+` WHERE short_link = $1`, shortLink)
	golink, err := scanGolink(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Golink{}, storage.ErrNotFound
		}
		return model.Golink{}, storage.Fault("postgres get", err)
	}
	return golink, nil
}

// GetAll возвращает все ссылки, новые первыми.
func (s *Store) GetAll(ctx context.Context) ([]model.Golink, error) {
	rows, err := s.DB.Pool.Query(ctx, selectColumns+orderNewestFirst)
	if err != nil {
		return nil, storage.Fault("postgres get all", err)
	}
	return collect(rows, "postgres get all")
}

// GetPaginated читает окно и общее количество двумя независимыми запросами.
// Под конкурентной записью итог может кратковременно не совпадать с окном.
func (s *Store) GetPaginated(ctx context.Context, page, pageSize int) ([]model.Golink, int, error) {
	_, pageSize, offset := storage.ClampPage(page, pageSize)

	var total int
	if err := s.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM golinks`).Scan(&total); err != nil {
		return nil, 0, storage.Fault("postgres count", err)
	}
	if offset >= total {
		return []model.Golink{}, total, nil
	}

	rows, err := s.DB.Pool.Query(ctx, selectColumns+orderNewestFirst+` LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, storage.Fault("postgres get paginated", err)
	}
	golinks, err := collect(rows, "postgres get paginated")
	if err != nil {
		return nil, 0, err
	}
	return golinks, total, nil
}

// Update меняет URL и возвращает обновлённую строку.
func (s *Store) Update(ctx context.Context, shortLink, url string) (model.Golink, error) {
	query := `UPDATE golinks SET url = $1 WHERE short_link = $2
              RETURNING id, short_link, url, created_at`

	golink, err := scanGolink(s.DB.Pool.QueryRow(ctx, query, url, shortLink))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Golink{}, storage.ErrNotFound
		}
		return model.Golink{}, storage.Fault("postgres update", err)
	}
	return golink, nil
}

// Delete удаляет ссылку.
func (s *Store) Delete(ctx context.Context, shortLink string) error {
	tag, err := s.DB.Pool.Exec(ctx, `DELETE FROM golinks WHERE short_link = $1`, shortLink)
	if err != nil {
		return storage.Fault("postgres delete", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Exists проверяет наличие ссылки.
func (s *Store) Exists(ctx context.Context, shortLink string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM golinks WHERE short_link = $1)`
	if err := s.DB.Pool.QueryRow(ctx, query, shortLink).Scan(&exists); err != nil {
		return false, storage.Fault("postgres exists", err)
	}
	return exists, nil
}

// Ping проверяет доступность базы данных.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.DB.Ping(ctx); err != nil {
		return storage.Fault("postgres ping", err)
	}
	return nil
}

// Close закрывает пул.
func (s *Store) Close() error {
	s.DB.Close()
	return nil
}

func scanGolink(row pgx.Row) (model.Golink, error) {
	var (
		golink  model.Golink
		created string
	)
	if err := row.Scan(&golink.ID, &golink.ShortLink, &golink.URL, &created); err != nil {
		return model.Golink{}, err
	}
	t, err := storage.DecodeTime(created)
	if err != nil {
		return model.Golink{}, err
	}
	golink.CreatedAt = t
	return golink, nil
}

func collect(rows pgx.Rows, op string) ([]model.Golink, error) {
	defer rows.Close()

	golinks := make([]model.Golink, 0)
	for rows.Next() {
		golink, err := scanGolink(rows)
		if err != nil {
			return nil, storage.Fault(op, err)
		}
		golinks = append(golinks, golink)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Fault(op, err)
	}
	return golinks, nil
}
