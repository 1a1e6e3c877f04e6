package service

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TaskService struct {
	coord  *base.Coordinator
	logger *zap.Logger
}

func NewTaskService(coord *base.Coordinator, logger *zap.Logger) *TaskService {
	return &TaskService{
		coord:  coord,
		logger: logger,
	}
}

// Create ставит задачу на активную связь. Оба текста после этого не меняются.
func (s *TaskService) Create(ctx context.Context, connectionID int64, description, translated string) (*model.Task, error) {
	task := &model.Task{
		ConnectionID:          connectionID,
		Description:           description,
		DescriptionTranslated: translated,
	}

	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewTaskRepository(tx).Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task created",
		zap.Int64("task_id", task.ID),
		zap.Int64("connection_id", connectionID),
	)

	return task, nil
}

// Complete отмечает задачу выполненной. nil, если задачи нет или она уже выполнена.
func (s *TaskService) Complete(ctx context.Context, id int64) (*model.Task, error) {
	task, err := inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Task, error) {
		return repository.NewTaskRepository(tx).Complete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if task != nil {
		s.logger.Info("Task completed",
			zap.Int64("task_id", id),
			zap.Int64("connection_id", task.ConnectionID),
		)
	}

	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Task, error) {
		return repository.NewTaskRepository(tx).GetByID(ctx, id)
	})
}

// ListForSupervisor задачи руководителя; пустой status значит все
func (s *TaskService) ListForSupervisor(ctx context.Context, supervisorID int64, status model.TaskStatus) ([]*model.Task, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Task, error) {
		return repository.NewTaskRepository(tx).ListForSupervisor(ctx, supervisorID, status)
	})
}

// ListForSubordinate задачи подчинённого; пустой status значит все
func (s *TaskService) ListForSubordinate(ctx context.Context, subordinateID int64, status model.TaskStatus) ([]*model.Task, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Task, error) {
		return repository.NewTaskRepository(tx).ListForSubordinate(ctx, subordinateID, status)
	})
}

func (s *TaskService) ListForConnection(ctx context.Context, connectionID int64) ([]*model.Task, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Task, error) {
		return repository.NewTaskRepository(tx).ListByConnection(ctx, connectionID)
	})
}

func (s *TaskService) CountByStatus(ctx context.Context) (map[model.TaskStatus]int64, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (map[model.TaskStatus]int64, error) {
		return repository.NewTaskRepository(tx).CountByStatus(ctx)
	})
}
