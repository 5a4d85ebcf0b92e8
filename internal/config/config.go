package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Хранилища, из которых выбирает процесс при старте.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress    string        `mapstructure:"server_address"`
	GRPCAddress      string        `mapstructure:"grpc_address"`
	StorageBackend   string        `mapstructure:"storage_backend"`
	SQLitePath       string        `mapstructure:"sqlite_path"`
	DatabaseDSN      string        `mapstructure:"database_dsn"`
	FallbackToMemory bool          `mapstructure:"fallback_to_memory"`
	AuthToken        string        `mapstructure:"auth_token"`
	LogDevelopment   bool          `mapstructure:"log_development"`
	HealthInterval   time.Duration `mapstructure:"health_interval"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

// flag -> ключ конфигурации
var flagKeys = map[string]string{
	"address":            "server_address",
	"grpc-address":       "grpc_address",
	"storage":            "storage_backend",
	"sqlite-path":        "sqlite_path",
	"database-dsn":       "database_dsn",
	"fallback-to-memory": "fallback_to_memory",
	"auth-token":         "auth_token",
	"log-development":    "log_development",
}

// RegisterFlags объявляет флаги командной строки. Значения по умолчанию задаёт SetDefaults.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("address", "a", "", "HTTP server address")
	flags.String("grpc-address", "", "gRPC health server address (empty disables it)")
	flags.StringP("storage", "s", "", "storage backend: memory, sqlite or postgres")
	flags.StringP("sqlite-path", "f", "", "SQLite database file")
	flags.StringP("database-dsn", "d", "", "PostgreSQL DSN")
	flags.Bool("fallback-to-memory", false, "use in-memory storage if the durable one fails to open")
	flags.String("auth-token", "", "bearer token required on /golinks")
	flags.Bool("log-development", false, "human-readable development logging")
	flags.StringP("config", "c", "", "path to config file")
}

// SetDefaults задаёт значения по умолчанию
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_address", "localhost:8080")
	v.SetDefault("grpc_address", "")
	v.SetDefault("storage_backend", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("database_dsn", "")
	v.SetDefault("fallback_to_memory", false)
	v.SetDefault("auth_token", "")
	v.SetDefault("log_development", false)
	v.SetDefault("health_interval", 10*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load собирает конфигурацию: флаги, затем переменные окружения, затем файл конфигурации
// (явный через --config/CONFIG или .env в рабочем каталоге), затем значения по умолчанию.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = cfg.deriveBackend()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	path := os.Getenv("CONFIG")
	if flags != nil {
		if p, err := flags.GetString("config"); err == nil && p != "" {
			path = p
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %q: %w", path, err)
		}
		return nil
	}

	// .env необязателен и не перекрывает переменные окружения
	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read .env: %w", err)
		}
	}
	return nil
}

// deriveBackend определяет хранилище, если оно не задано явно
func (cfg *Config) deriveBackend() string {
	switch {
	case cfg.DatabaseDSN != "":
		return BackendPostgres
	case cfg.SQLitePath != "":
		return BackendSQLite
	default:
		return BackendMemory
	}
}

// Durable сообщает, выбрано ли постоянное хранилище.
func (cfg *Config) Durable() bool {
	return cfg.StorageBackend == BackendSQLite || cfg.StorageBackend == BackendPostgres
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("адрес сервера не может быть пустым")
	}
	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return errors.New("для хранилища sqlite нужен sqlite_path")
		}
	case BackendPostgres:
		if cfg.DatabaseDSN == "" {
			return errors.New("для хранилища postgres нужен database_dsn")
		}
	default:
		return fmt.Errorf("неизвестное хранилище %q", cfg.StorageBackend)
	}
	if cfg.HealthInterval <= 0 {
		return errors.New("health_interval должен быть положительным")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout должен быть положительным")
	}
	return nil
}
