package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start (с deep link "/start КОД" сразу подключает к руководителю)
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	person := personFromUser(update.Message.From)
	if err := h.userService.Register(ctx, person); err != nil {
		h.logger.Error("Failed to register person", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	if code := commandPayload(update.Message.Text); code != "" {
		h.joinByCode(ctx, b, update, code, 0)
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я пересылаю сообщения между руководителем и подчинёнными, переводя их на язык собеседника.\n\n"+
			"Руководителю:\n"+
			"/supervisor - Стать руководителем и получить invite-код\n\n"+
			"Подчинённому:\n"+
			"/join КОД - Подключиться к руководителю\n\n"+
			"/help - Все команды",
		person.DisplayName,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"Для руководителей:\n" +
		"/supervisor [категория] - Стать руководителем\n" +
		"/slot [N] - Выбрать подчинённого\n" +
		"/task ТЕКСТ - Поставить задачу\n" +
		"/subscription - Тариф и лимит сообщений\n\n" +
		"Для подчинённых:\n" +
		"/join КОД [слот] - Подключиться к руководителю\n\n" +
		"Для всех:\n" +
		"/connections - Активные связи\n" +
		"/tasks - Открытые задачи\n" +
		"/disconnect - Разорвать связь\n" +
		"/language [код] - Язык перевода\n" +
		"/feedback - Написать разработчикам\n" +
		"/leave - Удалить аккаунт\n" +
		"/cancel - Отменить текущее действие\n\n" +
		"Любой другой текст пересылается собеседнику с переводом."

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	if currentState == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	// Очищаем состояние
	h.stateManager.ClearState(telegramID)

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleTextMessage обрабатывает текст без команды: сначала активный диалог, иначе пересылка собеседнику
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Неизвестная команда
	if strings.HasPrefix(update.Message.Text, "/") {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🤷 Неизвестная команда. Список команд: /help")
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("HandleTextMessage called",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateNone:
		h.relayText(ctx, b, update)
	case state.StateAwaitingTask:
		h.handleTaskText(ctx, b, update)
	case state.StateAwaitingFeedback:
		h.handleFeedbackText(ctx, b, update)
	case state.StateAwaitingInvite:
		h.stateManager.ClearState(telegramID)
		h.joinByCode(ctx, b, update, strings.TrimSpace(update.Message.Text), 0)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}

// roleName подпись роли для сообщений
func roleName(role model.Role) string {
	switch role {
	case model.RoleSupervisor:
		return "руководитель"
	case model.RoleSubordinate:
		return "подчинённый"
	}
	return "без роли"
}
