package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewPool открывает пул соединений с фиксированными min/max и проверяет доступность базы.
// Пулом владеет main: закрыть через pool.Close() при остановке.
func NewPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}

	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database pool ready",
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)

	return pool, nil
}
