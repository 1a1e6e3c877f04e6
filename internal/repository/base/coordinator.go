package base

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	retryBaseDelay    = 20 * time.Millisecond
)

// TxFunc единица работы. Возврат ошибки откатывает транзакцию.
type TxFunc func(tx pgx.Tx) error

// Coordinator выполняет каждую операцию как одну транзакцию на соединении из пула:
// acquire, begin, fn, commit или rollback, release всегда.
type Coordinator struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	maxRetries     uint64
	logger         *zap.Logger
}

// NewCoordinator создаёт координатор поверх уже открытого пула.
// acquireTimeout <= 0 означает ожидание до отмены ctx.
func NewCoordinator(pool *pgxpool.Pool, acquireTimeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		pool:           pool,
		acquireTimeout: acquireTimeout,
		maxRetries:     defaultMaxRetries,
		logger:         logger,
	}
}

// Pool возвращает пул соединений
func (c *Coordinator) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping проверяет доступность базы через соединение из пула
func (c *Coordinator) Ping(ctx context.Context) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return conn.Ping(ctx)
}

// Run выполняет fn в транзакции. Serialization failure и deadlock повторяются целиком,
// остальные ошибки возвращаются как есть.
func (c *Coordinator) Run(ctx context.Context, fn TxFunc) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(retryBaseDelay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.runOnce(ctx, fn)
		if err != nil && IsTransient(err) {
			c.logger.Warn("Transient database error, retrying unit of work",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Coordinator) runOnce(ctx context.Context, fn TxFunc) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Откатываем и при панике, соединение не должно вернуться в пул с открытой транзакцией
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rbErr := tx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return multierr.Append(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (c *Coordinator) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx := ctx
	if c.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, c.acquireTimeout)
		defer cancel()
	}

	conn, err := c.pool.Acquire(acquireCtx)
	if err != nil {
		// Истёк наш таймаут ожидания, а не контекст вызывающего
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			stat := c.pool.Stat()
			return nil, fmt.Errorf("%w: %d/%d connections in use after %s",
				ErrPoolExhausted, stat.AcquiredConns(), stat.MaxConns(), c.acquireTimeout)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	return conn, nil
}
