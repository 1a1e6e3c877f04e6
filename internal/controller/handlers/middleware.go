package handlers

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireProfile проверяет что пользователь зарегистрирован
// Возвращает профиль и true если OK, nil и false если нет
func (h *Handlers) requireProfile(ctx context.Context, b *bot.Bot, update *models.Update) (*service.Profile, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	profile, err := h.userService.GetProfile(ctx, telegramID)

	if err != nil {
		h.logger.Error("Failed to get profile", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}

	if profile == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	return profile, true
}

// requireSupervisor проверяет что пользователь является руководителем
func (h *Handlers) requireSupervisor(ctx context.Context, b *bot.Bot, update *models.Update) (*service.Profile, bool) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return nil, false
	}

	if profile.Role() != model.RoleSupervisor {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только руководителям.\n\nСтать руководителем: /supervisor")
		return nil, false
	}

	return profile, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendWithKeyboard(ctx, b, chatID, text, nil)
}

// sendWithKeyboard отправляет сообщение с inline клавиатурой
func (h *Handlers) sendWithKeyboard(ctx context.Context, b *bot.Bot, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := b.SendMessage(ctx, params)
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// Notify отправляет уведомление второй стороне связи; используется и callback handlers
func (h *Handlers) Notify(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendMessage(ctx, b, chatID, text)
}
