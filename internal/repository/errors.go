package repository

import "errors"

var (
	// ErrSlotOccupied у руководителя уже есть активная связь на этом слоте
	ErrSlotOccupied = errors.New("slot occupied")
	// ErrSubordinateAlreadyPaired у подчинённого уже есть активная связь
	ErrSubordinateAlreadyPaired = errors.New("subordinate already paired")
	// ErrUnknownParticipant руководитель или подчинённый не найден либо удалён
	ErrUnknownParticipant = errors.New("unknown participant")
	// ErrInvalidSlot номер слота вне допустимого диапазона
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInviteCodeTaken сгенерированный invite-код уже занят
	ErrInviteCodeTaken = errors.New("invite code taken")
	// ErrPersonNotFound пользователь ещё не зарегистрирован
	ErrPersonNotFound = errors.New("person not found")
	// ErrConnectionNotActive связь не найдена или уже закрыта
	ErrConnectionNotActive = errors.New("connection not active")
)

// Имена уникальных индексов из миграций, по ним различаем нарушения
const (
	constraintActiveSlot        = "connections_active_slot_uq"
	constraintActiveSubordinate = "connections_active_subordinate_uq"
	constraintInviteCode        = "supervisors_invite_code_uq"
)
