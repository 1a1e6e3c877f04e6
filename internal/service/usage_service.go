package service

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LimitsSource текущие лимиты; читаются на каждом вызове, могут меняться без рестарта
type LimitsSource interface {
	Limits() config.Limits
}

type UsageService struct {
	coord  *base.Coordinator
	limits LimitsSource
	logger *zap.Logger
}

func NewUsageService(coord *base.Coordinator, limits LimitsSource, logger *zap.Logger) *UsageService {
	return &UsageService{
		coord:  coord,
		limits: limits,
		logger: logger,
	}
}

// Increment учитывает одно сообщение руководителя и говорит, можно ли его отправить.
// Сообщение, на котором счётчик достигает лимита, само отклоняется, дальше запись
// остаётся заблокированной до Reset/Unblock.
func (s *UsageService) Increment(ctx context.Context, supervisorID int64) (bool, error) {
	limits := s.limits.Limits()
	enforced := limits.Enabled && !limits.Bypassed(supervisorID)

	var (
		rec     *model.UsageRecord
		allowed bool
	)
	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		repo := repository.NewUsageRepository(tx)
		if err := repo.Ensure(ctx, supervisorID); err != nil {
			return err
		}

		if !enforced {
			var err error
			rec, err = repo.Increment(ctx, supervisorID)
			allowed = true
			return err
		}

		var (
			ok  bool
			err error
		)
		rec, ok, err = repo.IncrementUnlessBlocked(ctx, supervisorID, limits.FreeMessageLimit)
		allowed = ok && !rec.IsBlocked
		return err
	})
	if err != nil {
		return false, err
	}

	if rec != nil && enforced && rec.IsBlocked {
		s.logger.Info("Free message limit reached",
			zap.Int64("supervisor_id", supervisorID),
			zap.Int64("messages_sent", rec.MessagesSent),
			zap.Int64("limit", limits.FreeMessageLimit),
		)
	}

	return allowed, nil
}

// IsBlocked возвращает флаг блокировки. Для исключений и при выключенном лимите всегда false.
func (s *UsageService) IsBlocked(ctx context.Context, supervisorID int64) (bool, error) {
	limits := s.limits.Limits()
	if !limits.Enabled || limits.Bypassed(supervisorID) {
		return false, nil
	}

	rec, err := s.Get(ctx, supervisorID)
	if err != nil {
		return false, err
	}

	return rec != nil && rec.IsBlocked, nil
}

// Get получает запись учёта (nil, если руководитель ещё не писал)
func (s *UsageService) Get(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.UsageRecord, error) {
		return repository.NewUsageRepository(tx).Get(ctx, supervisorID)
	})
}

// Reset обнуляет счётчик и снимает блокировку
func (s *UsageService) Reset(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	rec, err := inTx(ctx, s.coord, func(tx pgx.Tx) (*model.UsageRecord, error) {
		return repository.NewUsageRepository(tx).Reset(ctx, supervisorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Usage reset", zap.Int64("supervisor_id", supervisorID))
	return rec, nil
}

// Block блокирует руководителя, счётчик не меняется
func (s *UsageService) Block(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	return s.setBlocked(ctx, supervisorID, true)
}

// Unblock снимает блокировку, счётчик не меняется
func (s *UsageService) Unblock(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	return s.setBlocked(ctx, supervisorID, false)
}

func (s *UsageService) setBlocked(ctx context.Context, supervisorID int64, blocked bool) (*model.UsageRecord, error) {
	rec, err := inTx(ctx, s.coord, func(tx pgx.Tx) (*model.UsageRecord, error) {
		return repository.NewUsageRepository(tx).SetBlocked(ctx, supervisorID, blocked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Usage block changed",
		zap.Int64("supervisor_id", supervisorID),
		zap.Bool("blocked", blocked),
	)
	return rec, nil
}

// ListBlocked заблокированные руководители
func (s *UsageService) ListBlocked(ctx context.Context) ([]*model.UsageRecord, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.UsageRecord, error) {
		return repository.NewUsageRepository(tx).ListBlocked(ctx)
	})
}
