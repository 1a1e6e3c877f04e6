package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
)

// Limits настройки тарифа, которые читаются при каждом вызове
type Limits struct {
	FreeMessageLimit int64
	Enabled          bool
	RetentionDays    int
	BypassIDs        map[int64]struct{}
}

// Bypassed проверяет, входит ли id в список исключений (тестовые и служебные аккаунты)
func (l Limits) Bypassed(id int64) bool {
	_, ok := l.BypassIDs[id]
	return ok
}

// Retention окно хранения сообщений
func (l Limits) Retention() time.Duration {
	return time.Duration(l.RetentionDays) * 24 * time.Hour
}

// LimitsFromEnv читает FREE_MESSAGE_LIMIT, LIMIT_ENABLED, RETENTION_DAYS, LIMIT_BYPASS_IDS
func LimitsFromEnv(getenv func(string) string) (Limits, error) {
	var (
		l   Limits
		err error
	)

	if l.FreeMessageLimit, err = envInt64(getenv, "FREE_MESSAGE_LIMIT", 50); err != nil {
		return Limits{}, err
	}
	if l.FreeMessageLimit < 1 {
		return Limits{}, fmt.Errorf("FREE_MESSAGE_LIMIT must be at least 1, got %d", l.FreeMessageLimit)
	}
	if l.Enabled, err = envBool(getenv, "LIMIT_ENABLED", true); err != nil {
		return Limits{}, err
	}
	retention, err := envInt64(getenv, "RETENTION_DAYS", 30)
	if err != nil {
		return Limits{}, err
	}
	if retention < 1 {
		return Limits{}, fmt.Errorf("RETENTION_DAYS must be at least 1, got %d", retention)
	}
	l.RetentionDays = int(retention)

	if l.BypassIDs, err = parseIDs(getenv("LIMIT_BYPASS_IDS")); err != nil {
		return Limits{}, fmt.Errorf("parse LIMIT_BYPASS_IDS: %w", err)
	}

	return l, nil
}

func parseIDs(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// LimitsStore хранит текущие лимиты и перечитывает их из окружения/.env без рестарта
type LimitsStore struct {
	envFile string
	current atomic.Pointer[Limits]
}

// NewLimitsStore создаёт хранилище с начальными значениями
func NewLimitsStore(envFile string, initial Limits) *LimitsStore {
	s := &LimitsStore{envFile: envFile}
	s.current.Store(&initial)
	return s
}

// Limits возвращает актуальные лимиты
func (s *LimitsStore) Limits() Limits {
	return *s.current.Load()
}

// Reload перечитывает .env (перекрывая окружение) и заменяет лимиты.
// При ошибке разбора старые значения остаются.
func (s *LimitsStore) Reload() (Limits, error) {
	if s.envFile != "" {
		if err := godotenv.Overload(s.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s.Limits(), fmt.Errorf("reload %s: %w", s.envFile, err)
		}
	}

	l, err := LimitsFromEnv(os.Getenv)
	if err != nil {
		return s.Limits(), err
	}

	s.current.Store(&l)
	return l, nil
}
