package callbacks

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handler обертка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler
}

// StateManager интерфейс для управления состоянием пользователей
type StateManager = callbacktypes.StateManager

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	connectionService *service.ConnectionService,
	relayService *service.RelayService,
	stateManager callbacktypes.StateManager,
	logger *zap.Logger,
	notify func(ctx context.Context, b *bot.Bot, chatID int64, text string),
) *Handler {
	inner := &callbacktypes.Handler{
		UserService:       userService,
		ConnectionService: connectionService,
		RelayService:      relayService,
		StateManager:      stateManager,
		Logger:            logger,
		Notify:            notify,
	}
	return &Handler{Handler: inner}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery
	data := callback.Data

	h.Logger.Info("Callback received",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
	)

	// Вызываем роутер
	Route(ctx, b, callback, h.Handler)
}
