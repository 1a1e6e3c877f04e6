package callbacks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleSelectSlot запоминает слот, в который пойдут сообщения руководителя
func HandleSelectSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	slot, err := strconv.Atoi(strings.TrimPrefix(callback.Data, SelectSlot))
	if err != nil || (slot != 0 && !model.ValidSlot(slot)) {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный слот")
		return
	}

	telegramID := callback.From.ID
	if slot == 0 {
		h.StateManager.SelectSlot(telegramID, 0)
		common.AnswerCallback(ctx, b, callback.ID, "Выбор слота сброшен")
		_ = common.EditCallbackMessage(ctx, b, callback, "↩️ Слот не выбран. Сообщения уйдут единственному подчинённому.", nil)
		return
	}

	conn, err := h.ConnectionService.GetActiveBySlot(ctx, telegramID, slot)
	if err != nil {
		h.Logger.Error("Failed to get connection by slot", zap.Error(err), zap.Int64("telegram_id", telegramID), zap.Int("slot", slot))
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Ошибка. Попробуйте позже.")
		return
	}
	if conn == nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Этот слот свободен")
		return
	}

	h.StateManager.SelectSlot(telegramID, slot)
	common.AnswerCallback(ctx, b, callback.ID, fmt.Sprintf("Слот %d выбран", slot))
	_ = common.EditCallbackMessage(ctx, b, callback,
		fmt.Sprintf("🎯 Слот %d выбран. Все сообщения и задачи уйдут этому подчинённому.", slot), nil)
}

// HandleDisconnect спрашивает подтверждение разрыва связи
func HandleDisconnect(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	conn, ok := participantConnection(ctx, b, callback, h)
	if !ok {
		return
	}
	if !conn.IsActive() {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "ℹ️ Связь уже разорвана")
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "")
	err := common.EditCallbackMessage(ctx, b, callback,
		fmt.Sprintf("🔌 Отключить связь на слоте %d?\n\nИстория сообщений сохранится.", conn.Slot),
		ConfirmDisconnectKeyboard(conn.ID))
	if err != nil {
		h.Logger.Error("Failed to edit message", zap.Error(err))
	}
}

// HandleConfirmDisconnect разрывает связь и уведомляет вторую сторону
func HandleConfirmDisconnect(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	conn, ok := participantConnection(ctx, b, callback, h)
	if !ok {
		return
	}

	retired, err := h.ConnectionService.Retire(ctx, conn.ID)
	if err != nil {
		h.Logger.Error("Failed to retire connection", zap.Error(err), zap.Int64("connection_id", conn.ID))
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не удалось отключить. Попробуйте позже.")
		return
	}

	if retired == nil {
		// Уже разорвана (второй стороной или повторное нажатие)
		common.AnswerCallback(ctx, b, callback.ID, "ℹ️ Связь уже разорвана")
		_ = common.EditCallbackMessage(ctx, b, callback, "ℹ️ Связь уже разорвана.", nil)
		return
	}

	telegramID := callback.From.ID
	if h.StateManager.SelectedSlot(telegramID) == retired.Slot && retired.SupervisorID == telegramID {
		h.StateManager.SelectSlot(telegramID, 0)
	}

	common.AnswerCallback(ctx, b, callback.ID, "Отключено")
	_ = common.EditCallbackMessage(ctx, b, callback, fmt.Sprintf("✅ Связь на слоте %d разорвана.", retired.Slot), nil)

	partnerID, _ := retired.PartnerOf(telegramID)
	if partnerID != 0 && h.Notify != nil {
		h.Notify(ctx, b, partnerID, "🔌 Собеседник отключил связь. Переписка остановлена.")
	}
}

// HandleKeepConnection отмена разрыва
func HandleKeepConnection(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.AnswerCallback(ctx, b, callback.ID, "")
	_ = common.EditCallbackMessage(ctx, b, callback, "👍 Связь сохранена.", nil)
}

// participantConnection достаёт связь из callback data и проверяет, что нажавший в ней участвует
func participantConnection(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) (*model.Connection, bool) {
	connectionID, err := common.ParseIDFromCallback(callback.Data)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return nil, false
	}

	conn, err := h.ConnectionService.GetByID(ctx, connectionID)
	if err != nil {
		h.Logger.Error("Failed to get connection", zap.Error(err), zap.Int64("connection_id", connectionID))
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Ошибка. Попробуйте позже.")
		return nil, false
	}

	if conn == nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Связь не найдена")
		return nil, false
	}
	if _, role := conn.PartnerOf(callback.From.ID); role == model.RoleNone {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Это не ваша связь")
		return nil, false
	}
	return conn, true
}
