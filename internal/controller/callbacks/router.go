package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Callback Data Patterns
// ========================

const (
	Noop = "noop"

	SelectSlot = "slot:" // slot:2 (0 сбрасывает выбор)

	TaskDone = "task_done:" // task_done:123

	Disconnect        = "disconnect:"         // disconnect:connection_id
	ConfirmDisconnect = "confirm_disconnect:" // confirm_disconnect:connection_id
	KeepConnection    = "keep_connection"
)

// ========================
// Main Callback Router
// ========================

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
		zap.String("user_name", callback.From.FirstName))

	switch {
	case data == Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Supervisor: slots =====
	case strings.HasPrefix(data, SelectSlot):
		HandleSelectSlot(ctx, b, callback, h)

	// ===== Subordinate: tasks =====
	case strings.HasPrefix(data, TaskDone):
		HandleTaskDone(ctx, b, callback, h)

	// ===== Both: disconnect =====
	case strings.HasPrefix(data, ConfirmDisconnect):
		HandleConfirmDisconnect(ctx, b, callback, h)
	case strings.HasPrefix(data, Disconnect):
		HandleDisconnect(ctx, b, callback, h)
	case data == KeepConnection:
		HandleKeepConnection(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "🤷 Неизвестное действие")
	}
}
