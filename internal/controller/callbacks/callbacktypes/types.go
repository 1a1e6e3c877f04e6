package callbacktypes

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

// StateManager интерфейс для управления состоянием пользователей
type StateManager interface {
	ClearState(telegramID int64)
	GetState(telegramID int64) UserState
	SetState(telegramID int64, state UserState)
	SelectedSlot(telegramID int64) int
	SelectSlot(telegramID int64, slot int)
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService       *service.UserService
	ConnectionService *service.ConnectionService
	RelayService      *service.RelayService
	StateManager      StateManager
	Logger            *zap.Logger

	// Notify отправляет уведомление второй стороне связи
	Notify func(ctx context.Context, b *bot.Bot, chatID int64, text string)
}
