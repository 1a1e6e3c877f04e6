package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// relayText переводит сообщение и пересылает его собеседнику
func (h *Handlers) relayText(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	slot := h.stateManager.SelectedSlot(telegramID)

	delivery, err := h.relayService.Relay(ctx, telegramID, slot, update.Message.Text)
	if err != nil {
		if text := relayErrorText(err); text != "" {
			h.sendError(ctx, b, update.Message.Chat.ID, text)
			return
		}
		h.logger.Error("Failed to relay message",
			zap.Int64("telegram_id", telegramID),
			zap.Int("slot", slot),
			zap.Error(err),
		)
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Сообщение не доставлено. Попробуйте позже.")
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: delivery.RecipientID,
		Text:   FormatDelivery(delivery),
	})
	if err != nil {
		// Сообщение уже в журнале, собеседник увидит его в истории
		h.logger.Warn("Failed to deliver message",
			zap.Int64("message_id", delivery.Message.ID),
			zap.Int64("recipient_id", delivery.RecipientID),
			zap.Error(err),
		)
		h.sendError(ctx, b, update.Message.Chat.ID, "⚠️ Собеседник недоступен в Telegram, сообщение сохранено.")
	}
}
