package service

import (
	"errors"

	"github.com/Freeeeeet/relay_bot/internal/repository"
)

var (
	ErrInvalidSlot         = repository.ErrInvalidSlot
	ErrUnknownParticipant  = repository.ErrUnknownParticipant
	ErrConnectionNotActive = repository.ErrConnectionNotActive
	ErrPersonNotFound      = repository.ErrPersonNotFound

	// ErrUnknownEvent событие оплаты, которое мы не обрабатываем
	ErrUnknownEvent = errors.New("unknown billing event")
	// ErrInviteCodeExhausted не удалось подобрать свободный invite-код
	ErrInviteCodeExhausted = errors.New("could not allocate invite code")
)
