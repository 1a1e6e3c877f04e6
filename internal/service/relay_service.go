package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/translator"
	"go.uber.org/zap"
)

var (
	// ErrNotPaired у отправителя нет активной связи (на выбранном слоте)
	ErrNotPaired = errors.New("no active connection")
	// ErrSlotRequired у руководителя несколько связей, а слот не выбран
	ErrSlotRequired = errors.New("slot must be selected")
	// ErrLimitReached бесплатный лимит исчерпан и подписки нет
	ErrLimitReached = errors.New("free message limit reached")
	// ErrNotSupervisor команда доступна только руководителю
	ErrNotSupervisor = errors.New("not a supervisor")
	// ErrNotTaskOwner задача принадлежит чужой связи
	ErrNotTaskOwner = errors.New("task belongs to another subordinate")
)

// Delivery что и кому переслать после успешной записи
type Delivery struct {
	Connection     *model.Connection
	Message        *model.Message
	RecipientID    int64
	FromSupervisor bool
}

// RelayService собирает пересылку из остальных сервисов: выбор связи, проверка лимита,
// перевод, запись в журнал. Каждая операция хранилища остаётся отдельной единицей работы.
type RelayService struct {
	users         *UserService
	connections   *ConnectionService
	usage         *UsageService
	subscriptions *SubscriptionService
	messages      *MessageService
	tasks         *TaskService
	translator    translator.Translator
	logger        *zap.Logger
}

func NewRelayService(
	users *UserService,
	connections *ConnectionService,
	usage *UsageService,
	subscriptions *SubscriptionService,
	messages *MessageService,
	tasks *TaskService,
	tr translator.Translator,
	logger *zap.Logger,
) *RelayService {
	return &RelayService{
		users:         users,
		connections:   connections,
		usage:         usage,
		subscriptions: subscriptions,
		messages:      messages,
		tasks:         tasks,
		translator:    tr,
		logger:        logger,
	}
}

// Relay переводит и сохраняет сообщение от senderID его партнёру.
// slot учитывается только для руководителя; 0 значит "единственная связь".
func (s *RelayService) Relay(ctx context.Context, senderID int64, slot int, text string) (*Delivery, error) {
	sender, err := s.users.GetProfile(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrPersonNotFound
	}

	var conn *model.Connection
	switch sender.Role() {
	case model.RoleSupervisor:
		if conn, err = s.supervisorConnection(ctx, senderID, slot); err != nil {
			return nil, err
		}
	case model.RoleSubordinate:
		if conn, err = s.connections.GetActiveBySubordinate(ctx, senderID); err != nil {
			return nil, err
		}
		if conn == nil {
			return nil, ErrNotPaired
		}
	default:
		return nil, ErrNotPaired
	}

	recipientID, _ := conn.PartnerOf(senderID)
	translated, err := s.translateFor(ctx, text, sender.Person, recipientID)
	if err != nil {
		return nil, err
	}

	// Лимит списываем только за переведённое сообщение
	if sender.Role() == model.RoleSupervisor {
		if err := s.checkAllowance(ctx, senderID); err != nil {
			return nil, err
		}
	}

	msg, err := s.messages.Save(ctx, conn.ID, senderID, text, translated)
	if err != nil {
		return nil, err
	}

	return &Delivery{
		Connection:     conn,
		Message:        msg,
		RecipientID:    recipientID,
		FromSupervisor: conn.SupervisorID == senderID,
	}, nil
}

// AssignTask ставит задачу подчинённому на выбранном слоте, описание переводится сразу
func (s *RelayService) AssignTask(ctx context.Context, supervisorID int64, slot int, description string) (*model.Task, *model.Connection, error) {
	sender, err := s.users.GetProfile(ctx, supervisorID)
	if err != nil {
		return nil, nil, err
	}
	if sender == nil || sender.Role() != model.RoleSupervisor {
		return nil, nil, ErrNotSupervisor
	}

	conn, err := s.supervisorConnection(ctx, supervisorID, slot)
	if err != nil {
		return nil, nil, err
	}

	translated, err := s.translateFor(ctx, description, sender.Person, conn.SubordinateID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.tasks.Create(ctx, conn.ID, description, translated)
	if err != nil {
		return nil, nil, err
	}
	task.Slot = conn.Slot

	return task, conn, nil
}

// CompleteTask отмечает задачу от имени подчинённого. nil-задача значит "уже выполнена".
func (s *RelayService) CompleteTask(ctx context.Context, subordinateID, taskID int64) (*model.Task, *model.Connection, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, nil
	}

	conn, err := s.connections.GetByID(ctx, task.ConnectionID)
	if err != nil {
		return nil, nil, err
	}
	if conn == nil || conn.SubordinateID != subordinateID {
		return nil, nil, ErrNotTaskOwner
	}

	done, err := s.tasks.Complete(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if done != nil {
		done.Slot = conn.Slot
	}

	return done, conn, nil
}

func (s *RelayService) supervisorConnection(ctx context.Context, supervisorID int64, slot int) (*model.Connection, error) {
	if slot != 0 {
		conn, err := s.connections.GetActiveBySlot(ctx, supervisorID, slot)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			return nil, ErrNotPaired
		}
		return conn, nil
	}

	active, err := s.connections.ListActiveBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	switch len(active) {
	case 0:
		return nil, ErrNotPaired
	case 1:
		return active[0], nil
	}
	return nil, ErrSlotRequired
}

// checkAllowance активная подписка важнее счётчика бесплатных сообщений
func (s *RelayService) checkAllowance(ctx context.Context, supervisorID int64) error {
	subscribed, err := s.subscriptions.IsActive(ctx, supervisorID)
	if err != nil {
		return err
	}
	if subscribed {
		return nil
	}

	allowed, err := s.usage.Increment(ctx, supervisorID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrLimitReached
	}
	return nil
}

func (s *RelayService) translateFor(ctx context.Context, text string, sender *model.Person, recipientID int64) (string, error) {
	recipient, err := s.users.GetProfile(ctx, recipientID)
	if err != nil {
		return "", err
	}

	to := model.NormalizeLanguage(model.DefaultLanguage)
	if recipient != nil {
		to = recipient.Person.Language()
	}

	translated, err := s.translator.Translate(ctx, text, sender.Language(), to)
	if err != nil {
		return "", fmt.Errorf("translate message: %w", err)
	}
	return translated, nil
}
