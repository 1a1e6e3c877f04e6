package service

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// AdminService сводка для админки и работа с отзывами
type AdminService struct {
	coord  *base.Coordinator
	logger *zap.Logger
}

func NewAdminService(coord *base.Coordinator, logger *zap.Logger) *AdminService {
	return &AdminService{
		coord:  coord,
		logger: logger,
	}
}

// Stats собирает счётчики одной транзакцией
func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Stats, error) {
		var (
			st  model.Stats
			err error
		)

		st.Persons, st.Supervisors, st.Subordinates, err = repository.NewPersonRepository(tx).CountByRole(ctx)
		if err != nil {
			return nil, err
		}
		if st.ActiveConnections, err = repository.NewConnectionRepository(tx).CountActive(ctx); err != nil {
			return nil, err
		}

		tasks, err := repository.NewTaskRepository(tx).CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		st.PendingTasks = tasks[model.TaskStatusPending]
		st.CompletedTasks = tasks[model.TaskStatusCompleted]

		if st.Messages, err = repository.NewMessageRepository(tx).Count(ctx, 0); err != nil {
			return nil, err
		}
		if st.BlockedSupervisors, err = repository.NewUsageRepository(tx).CountBlocked(ctx); err != nil {
			return nil, err
		}

		subs, err := repository.NewSubscriptionRepository(tx).ListGrantingAccess(ctx)
		if err != nil {
			return nil, err
		}
		st.ActiveSubscriptions = len(subs)

		if st.UnreadFeedback, err = repository.NewFeedbackRepository(tx).CountUnread(ctx); err != nil {
			return nil, err
		}

		return &st, nil
	})
}

// SubmitFeedback сохраняет отзыв пользователя
func (s *AdminService) SubmitFeedback(ctx context.Context, personID int64, text string) (*model.Feedback, error) {
	fb := &model.Feedback{PersonID: personID, Text: text}
	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewFeedbackRepository(tx).Create(ctx, fb)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Feedback received",
		zap.Int64("feedback_id", fb.ID),
		zap.Int64("person_id", personID),
	)
	return fb, nil
}

// ListFeedback отзывы, новые первыми
func (s *AdminService) ListFeedback(ctx context.Context, unreadOnly bool, limit int) ([]*model.Feedback, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Feedback, error) {
		return repository.NewFeedbackRepository(tx).List(ctx, unreadOnly, limit)
	})
}

// MarkFeedbackRead nil, если отзыв не найден или уже прочитан
func (s *AdminService) MarkFeedbackRead(ctx context.Context, id int64) (*model.Feedback, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Feedback, error) {
		return repository.NewFeedbackRepository(tx).MarkRead(ctx, id)
	})
}
