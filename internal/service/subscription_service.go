package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SubscriptionService struct {
	coord  *base.Coordinator
	logger *zap.Logger
	now    func() time.Time
}

func NewSubscriptionService(coord *base.Coordinator, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		coord:  coord,
		logger: logger,
		now:    time.Now,
	}
}

// Apply записывает проверенное событие оплаты в журнал и применяет переход одной
// единицей работы. Любое событие можно доставить повторно или не по порядку.
// Возвращает подписку после события; nil, если payment_recovered пришёл не на паузе.
func (s *SubscriptionService) Apply(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	if ev.Kind == model.EventUnknown {
		ev.Kind = model.ParseEventKind(ev.Name)
	}
	if ev.Kind == model.EventUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	sub, err := inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Subscription, error) {
		if err := repository.NewBillingEventRepository(tx).Append(ctx, ev); err != nil {
			return nil, err
		}
		return s.transition(ctx, repository.NewSubscriptionRepository(tx), ev)
	})
	if err != nil {
		return nil, fmt.Errorf("apply %s event: %w", ev.Kind, err)
	}

	fields := []zap.Field{
		zap.String("event_id", ev.ID.String()),
		zap.String("event", string(ev.Kind)),
		zap.Int64("supervisor_id", ev.PersonID),
	}
	if sub != nil {
		fields = append(fields, zap.String("status", string(sub.Status)))
	}
	s.logger.Info("Billing event applied", fields...)

	return sub, nil
}

func (s *SubscriptionService) transition(ctx context.Context, repo *repository.SubscriptionRepository, ev *model.BillingEvent) (*model.Subscription, error) {
	switch ev.Kind {
	case model.EventCreated:
		return repo.ApplyCreated(ctx, ev)
	case model.EventUpdated:
		return repo.ApplyUpdated(ctx, ev)
	case model.EventCancelled:
		return repo.ApplyCancelled(ctx, ev)
	case model.EventResumed, model.EventUnpaused:
		return repo.ApplyResumed(ctx, ev)
	case model.EventExpired:
		return repo.ApplyStatus(ctx, ev, model.SubscriptionStatusExpired)
	case model.EventPaused:
		return repo.ApplyStatus(ctx, ev, model.SubscriptionStatusPaused)
	case model.EventPaymentFailed:
		return repo.Ensure(ctx, ev)
	case model.EventPaymentRecovered:
		if _, err := repo.Ensure(ctx, ev); err != nil {
			return nil, err
		}
		return repo.RecoverPaused(ctx, ev.PersonID)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
}

// IsActive даёт ли подписка доступ сейчас: active, либо cancelled до ends_at
func (s *SubscriptionService) IsActive(ctx context.Context, supervisorID int64) (bool, error) {
	sub, err := s.Get(ctx, supervisorID)
	if err != nil {
		return false, err
	}
	return sub.IsActiveAt(s.now()), nil
}

// Get получает подписку (nil, если событий не было)
func (s *SubscriptionService) Get(ctx context.Context, supervisorID int64) (*model.Subscription, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Subscription, error) {
		return repository.NewSubscriptionRepository(tx).Get(ctx, supervisorID)
	})
}

// ListActive подписки, дающие доступ
func (s *SubscriptionService) ListActive(ctx context.Context) ([]*model.Subscription, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Subscription, error) {
		return repository.NewSubscriptionRepository(tx).ListGrantingAccess(ctx)
	})
}

// History последние события оплаты руководителя
func (s *SubscriptionService) History(ctx context.Context, supervisorID int64, limit int) ([]*model.BillingEvent, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.BillingEvent, error) {
		return repository.NewBillingEventRepository(tx).ListByPerson(ctx, supervisorID, limit)
	})
}
