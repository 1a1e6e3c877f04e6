package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MessageService struct {
	coord  *base.Coordinator
	logger *zap.Logger
}

func NewMessageService(coord *base.Coordinator, logger *zap.Logger) *MessageService {
	return &MessageService{
		coord:  coord,
		logger: logger,
	}
}

// Save добавляет сообщение в журнал связи. Очистка старых сообщений идёт отдельно, в планировщике.
func (s *MessageService) Save(ctx context.Context, connectionID, senderID int64, original, translated string) (*model.Message, error) {
	msg := &model.Message{
		ConnectionID:   connectionID,
		SenderID:       senderID,
		OriginalText:   original,
		TranslatedText: translated,
	}

	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewMessageRepository(tx).Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// Recent сообщения связи с момента since, старые первыми
func (s *MessageService) Recent(ctx context.Context, connectionID int64, since time.Time) ([]*model.Message, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Message, error) {
		return repository.NewMessageRepository(tx).ListSince(ctx, connectionID, since)
	})
}

// History последние limit сообщений (не больше repository.MaxHistory), старые первыми
func (s *MessageService) History(ctx context.Context, connectionID int64, limit int) ([]*model.Message, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Message, error) {
		return repository.NewMessageRepository(tx).History(ctx, connectionID, limit)
	})
}

// Count число сообщений связи; 0 считает по всей системе
func (s *MessageService) Count(ctx context.Context, connectionID int64) (int64, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (int64, error) {
		return repository.NewMessageRepository(tx).Count(ctx, connectionID)
	})
}

func (s *MessageService) RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Activity, error) {
		return repository.NewMessageRepository(tx).RecentActivity(ctx, limit)
	})
}

// DeleteForConnection удаляет историю связи
func (s *MessageService) DeleteForConnection(ctx context.Context, connectionID int64) (int64, error) {
	n, err := inTx(ctx, s.coord, func(tx pgx.Tx) (int64, error) {
		return repository.NewMessageRepository(tx).DeleteByConnection(ctx, connectionID)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Connection history purged",
		zap.Int64("connection_id", connectionID),
		zap.Int64("deleted", n),
	)
	return n, nil
}

// CleanupExpired удаляет сообщения старше retention
func (s *MessageService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (int64, error) {
		return repository.NewMessageRepository(tx).DeleteExpired(ctx, retention)
	})
}
