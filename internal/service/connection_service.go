package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CreateOutcome результат попытки создать связь
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	OutcomeSlotOccupied
	OutcomeSubordinateAlreadyPaired
)

func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeSlotOccupied:
		return "slot_occupied"
	case OutcomeSubordinateAlreadyPaired:
		return "subordinate_already_paired"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// CreateResult конфликт слота или подчинённого это значение, а не ошибка.
// Connection заполнен только при OutcomeCreated.
type CreateResult struct {
	Outcome    CreateOutcome
	Connection *model.Connection
}

// Created проверяет, что связь создана
func (r CreateResult) Created() bool {
	return r.Outcome == OutcomeCreated
}

type ConnectionService struct {
	coord  *base.Coordinator
	logger *zap.Logger
}

func NewConnectionService(coord *base.Coordinator, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{
		coord:  coord,
		logger: logger,
	}
}

// Create создаёт связь на слоте. Занятость проверяется только уникальными индексами
// при вставке: две конкурентные попытки на один слот сериализуются в базе.
func (s *ConnectionService) Create(ctx context.Context, supervisorID, subordinateID int64, slot int) (CreateResult, error) {
	if !model.ValidSlot(slot) {
		return CreateResult{}, ErrInvalidSlot
	}

	conn := &model.Connection{
		SupervisorID:  supervisorID,
		SubordinateID: subordinateID,
		Slot:          slot,
	}

	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewConnectionRepository(tx).Create(ctx, conn)
	})

	switch {
	case err == nil:
		s.logger.Info("Connection created",
			zap.Int64("connection_id", conn.ID),
			zap.Int64("supervisor_id", supervisorID),
			zap.Int64("subordinate_id", subordinateID),
			zap.Int("slot", slot),
		)
		return CreateResult{Outcome: OutcomeCreated, Connection: conn}, nil
	case errors.Is(err, repository.ErrSlotOccupied):
		return CreateResult{Outcome: OutcomeSlotOccupied}, nil
	case errors.Is(err, repository.ErrSubordinateAlreadyPaired):
		return CreateResult{Outcome: OutcomeSubordinateAlreadyPaired}, nil
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrUnknownParticipant):
		return CreateResult{}, err
	default:
		return CreateResult{}, fmt.Errorf("create connection: %w", err)
	}
}

// ConnectFirstFreeSlot пробует слоты по возрастанию, каждый отдельной единицей работы.
// Если все слоты заняты, возвращает OutcomeSlotOccupied.
func (s *ConnectionService) ConnectFirstFreeSlot(ctx context.Context, supervisorID, subordinateID int64) (CreateResult, error) {
	for slot := model.MinSlot; slot <= model.MaxSlots; slot++ {
		res, err := s.Create(ctx, supervisorID, subordinateID, slot)
		if err != nil {
			return CreateResult{}, err
		}
		if res.Outcome != OutcomeSlotOccupied {
			return res, nil
		}
	}
	return CreateResult{Outcome: OutcomeSlotOccupied}, nil
}

// Retire закрывает связь. Повторный вызов возвращает nil без ошибки.
func (s *ConnectionService) Retire(ctx context.Context, id int64) (*model.Connection, error) {
	conn, err := inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Connection, error) {
		return repository.NewConnectionRepository(tx).Retire(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if conn != nil {
		s.logger.Info("Connection retired",
			zap.Int64("connection_id", id),
			zap.Int64("supervisor_id", conn.SupervisorID),
			zap.Int("slot", conn.Slot),
		)
	}

	return conn, nil
}

// RetireAllForPerson закрывает все активные связи человека в любой роли
func (s *ConnectionService) RetireAllForPerson(ctx context.Context, personID int64) ([]*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Connection, error) {
		return repository.NewConnectionRepository(tx).RetireAllForPerson(ctx, personID)
	})
}

// GetByID получает связь в любом статусе
func (s *ConnectionService) GetByID(ctx context.Context, id int64) (*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Connection, error) {
		return repository.NewConnectionRepository(tx).GetByID(ctx, id)
	})
}

func (s *ConnectionService) GetActiveBySlot(ctx context.Context, supervisorID int64, slot int) (*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Connection, error) {
		return repository.NewConnectionRepository(tx).GetActiveBySlot(ctx, supervisorID, slot)
	})
}

func (s *ConnectionService) GetActiveBySubordinate(ctx context.Context, subordinateID int64) (*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Connection, error) {
		return repository.NewConnectionRepository(tx).GetActiveBySubordinate(ctx, subordinateID)
	})
}

func (s *ConnectionService) ListActiveBySupervisor(ctx context.Context, supervisorID int64) ([]*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Connection, error) {
		return repository.NewConnectionRepository(tx).ListActiveBySupervisor(ctx, supervisorID)
	})
}

// ListActive все активные связи системы
func (s *ConnectionService) ListActive(ctx context.Context) ([]*model.Connection, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Connection, error) {
		return repository.NewConnectionRepository(tx).ListActive(ctx)
	})
}
