package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleJoin обрабатывает /join КОД [слот]
func (h *Handlers) HandleJoin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireProfile(ctx, b, update); !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.stateManager.SetState(update.Message.From.ID, state.StateAwaitingInvite)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🔑 Введите invite-код руководителя.\n\nОтмена: /cancel")
		return
	}

	slot := 0
	if len(args) > 1 {
		var err error
		if slot, err = parseSlot(args[1]); err != nil {
			h.sendError(ctx, b, update.Message.Chat.ID, "❌ Номер слота от 1 до 5.")
			return
		}
	}

	h.joinByCode(ctx, b, update, args[0], slot)
}

// joinByCode подключает отправителя к руководителю; slot 0 значит первый свободный
func (h *Handlers) joinByCode(ctx context.Context, b *bot.Bot, update *models.Update, code string, slot int) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	sup, err := h.userService.FindSupervisorByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		h.logger.Error("Failed to find supervisor by code", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	if sup == nil {
		h.sendError(ctx, b, chatID, "❌ Код не найден. Проверьте его у руководителя.")
		return
	}
	if sup.ID == telegramID {
		h.sendError(ctx, b, chatID, "❌ Нельзя подключиться к самому себе.")
		return
	}

	if _, err := h.userService.BecomeSubordinate(ctx, telegramID); err != nil {
		h.logger.Error("Failed to become subordinate", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	var res service.CreateResult
	if slot == 0 {
		res, err = h.connectionService.ConnectFirstFreeSlot(ctx, sup.ID, telegramID)
	} else {
		res, err = h.connectionService.Create(ctx, sup.ID, telegramID, slot)
	}
	if err != nil {
		if errors.Is(err, service.ErrUnknownParticipant) {
			h.sendError(ctx, b, chatID, "❌ Руководитель больше не принимает подключения.")
			return
		}
		h.logger.Error("Failed to create connection",
			zap.Int64("supervisor_id", sup.ID),
			zap.Int64("subordinate_id", telegramID),
			zap.Error(err),
		)
		h.sendError(ctx, b, chatID, "❌ Не удалось подключиться. Попробуйте позже.")
		return
	}

	switch res.Outcome {
	case service.OutcomeSlotOccupied:
		if slot == 0 {
			h.sendError(ctx, b, chatID, "❌ У руководителя заняты все слоты.")
		} else {
			h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Слот %d уже занят. Попробуйте /join %s без номера слота.", slot, code))
		}
		return
	case service.OutcomeSubordinateAlreadyPaired:
		h.sendError(ctx, b, chatID, "❌ Вы уже подключены к руководителю. Сначала /disconnect")
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Подключено! Вы на слоте %d.\n\nПишите сообщения, они будут переведены для руководителя.",
		res.Connection.Slot,
	))
	h.Notify(ctx, b, sup.ID, fmt.Sprintf(
		"🤝 Подключился подчинённый %s на слот %d.\n\nВыбор собеседника: /slot %d",
		update.Message.From.FirstName, res.Connection.Slot, res.Connection.Slot,
	))
}
