package callbacks

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleTaskDone подчинённый отмечает задачу выполненной, руководитель получает уведомление
func HandleTaskDone(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	taskID, err := common.ParseIDFromCallback(callback.Data)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	telegramID := callback.From.ID
	task, conn, err := h.RelayService.CompleteTask(ctx, telegramID, taskID)
	switch {
	case errors.Is(err, service.ErrNotTaskOwner):
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Это чужая задача")
		return
	case err != nil:
		h.Logger.Error("Failed to complete task",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID),
			zap.Int64("task_id", taskID),
		)
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не удалось отметить задачу. Попробуйте позже.")
		return
	}

	if task == nil {
		// Уже выполнена или удалена
		common.AnswerCallback(ctx, b, callback.ID, "Задача уже выполнена")
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "Отлично!")
	if msg := common.GetMessageFromCallback(callback); msg != nil {
		_ = common.EditCallbackMessage(ctx, b, callback, "✅ "+msg.Text, nil)
	}
	if h.Notify != nil {
		h.Notify(ctx, b, conn.SupervisorID, fmt.Sprintf(
			"✅ Задача #%d выполнена (слот %d)\n\n%s",
			task.ID, conn.Slot, task.Description,
		))
	}
}
