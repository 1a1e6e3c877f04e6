package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile путь к .env по умолчанию
const DefaultEnvFile = ".env"

type Config struct {
	TelegramToken    string
	DBDSN            string
	Environment      string
	LogLevel         string
	HTTPAddr         string
	WebhookSecret    string
	AdminToken       string
	DBMinConns       int32
	DBMaxConns       int32
	DBAcquireTimeout time.Duration
	CleanupInterval  time.Duration
	EnvFile          string

	// Лимиты перечитываются без рестарта, см. LimitsStore
	Limits Limits
}

func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		log.Printf("⚠️  No %s file found, using environment variables", envFile)
	} else {
		log.Printf("✅ Loaded configuration from %s", envFile)
	}

	return FromEnv(os.Getenv, envFile)
}

// FromEnv собирает конфиг из функции чтения переменных (os.Getenv в проде)
func FromEnv(getenv func(string) string, envFile string) (*Config, error) {
	cfg := &Config{
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		DBDSN:         getenv("DB_DSN"),
		Environment:   getenv("ENV"),
		LogLevel:      getenv("LOG_LEVEL"),
		HTTPAddr:      getenv("HTTP_ADDR"),
		WebhookSecret: getenv("BILLING_WEBHOOK_SECRET"),
		AdminToken:    getenv("ADMIN_TOKEN"),
		EnvFile:       envFile,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	var err error
	if cfg.DBMinConns, err = envInt32(getenv, "DB_MIN_CONNS", 2); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = envInt32(getenv, "DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DBAcquireTimeout, err = envDuration(getenv, "DB_ACQUIRE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = envDuration(getenv, "CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.Limits, err = LimitsFromEnv(getenv); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBMinConns < 0 || cfg.DBMaxConns < 1 || cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("invalid pool size: min=%d max=%d", cfg.DBMinConns, cfg.DBMaxConns)
	}
	if cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}

	return cfg, nil
}

func envInt32(getenv func(string) string, key string, def int32) (int32, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return int32(v), nil
}

func envInt64(getenv func(string) string, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func envBool(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func envDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
