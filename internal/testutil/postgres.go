// Package testutil поднимает изолированную схему Postgres для тестов хранилища.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/app"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// DSNEnv переменная окружения с DSN тестовой базы
const DSNEnv = "TEST_DATABASE_DSN"

// PoolOptions настройки тестового пула
type PoolOptions struct {
	MaxConns       int32
	AcquireTimeout time.Duration
}

// NewPool создаёт пул в свежей схеме с применёнными миграциями.
// Без TEST_DATABASE_DSN тест пропускается. Схема удаляется в t.Cleanup.
func NewPool(t *testing.T, opts ...PoolOptions) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping store-backed test", DSNEnv)
	}

	opt := PoolOptions{MaxConns: 16}
	if len(opts) > 0 {
		opt = opts[0]
	}

	ctx := context.Background()
	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.MaxConns = opt.MaxConns
	cfg.MinConns = 0
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	migrator, err := app.NewMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	defer migrator.Close()
	require.NoError(t, migrator.Run(ctx))

	return pool
}

// NewCoordinator пул + координатор с тихим логгером
func NewCoordinator(t *testing.T, opts ...PoolOptions) *base.Coordinator {
	t.Helper()

	pool := NewPool(t, opts...)
	timeout := 5 * time.Second
	if len(opts) > 0 && opts[0].AcquireTimeout > 0 {
		timeout = opts[0].AcquireTimeout
	}
	return base.NewCoordinator(pool, timeout, zap.NewNop())
}

// SeedPerson вставляет person напрямую, минуя сервисы
func SeedPerson(t *testing.T, db base.DBTX, id int64, lang string) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO persons (id, display_name, language_code) VALUES ($1, $2, $3)`,
		id, "person", lang)
	require.NoError(t, err)
}

// SeedSupervisor создаёт person + supervisor
func SeedSupervisor(t *testing.T, db base.DBTX, id int64) {
	t.Helper()
	SeedPerson(t, db, id, "ru")
	_, err := db.Exec(context.Background(),
		`INSERT INTO supervisors (id, invite_code) VALUES ($1, $2)`,
		id, "CODE"+strings.ToUpper(uuid.NewString()[:8]))
	require.NoError(t, err)
}

// SeedSubordinate создаёт person + subordinate
func SeedSubordinate(t *testing.T, db base.DBTX, id int64) {
	t.Helper()
	SeedPerson(t, db, id, "es")
	_, err := db.Exec(context.Background(), `INSERT INTO subordinates (id) VALUES ($1)`, id)
	require.NoError(t, err)
}
