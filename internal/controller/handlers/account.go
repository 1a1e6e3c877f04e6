package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/translator"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleConnections обрабатывает /connections
func (h *Handlers) HandleConnections(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}

	active, err := h.activeConnections(ctx, profile.Person.ID, profile.Role())
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Int64("telegram_id", profile.Person.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	text := fmt.Sprintf("👤 Роль: %s\n\n%s", roleName(profile.Role()), FormatConnections(active, profile.Person.ID, h.stateManager.SelectedSlot(profile.Person.ID)))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text)
}

// HandleTasks обрабатывает /tasks: открытые задачи по роли
func (h *Handlers) HandleTasks(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	telegramID := profile.Person.ID
	role := profile.Role()

	var (
		tasks []*model.Task
		err   error
	)
	switch role {
	case model.RoleSupervisor:
		tasks, err = h.taskService.ListForSupervisor(ctx, telegramID, model.TaskStatusPending)
	case model.RoleSubordinate:
		tasks, err = h.taskService.ListForSubordinate(ctx, telegramID, model.TaskStatusPending)
	default:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "📭 Задач нет: вы ещё не руководитель и не подчинённый.")
		return
	}
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if len(tasks) > TaskListLimit {
		tasks = tasks[:TaskListLimit]
	}

	var markup *models.InlineKeyboardMarkup
	if role == model.RoleSubordinate && len(tasks) > 0 {
		buttons := make([]models.InlineKeyboardButton, 0, len(tasks))
		for _, t := range tasks {
			buttons = append(buttons, keyboard.Button("✅ #"+strconv.FormatInt(t.ID, 10), callbacks.TaskDone+strconv.FormatInt(t.ID, 10)))
		}
		markup = keyboard.NewBuilder().Grid(3, buttons...).Build()
	}

	h.sendWithKeyboard(ctx, b, update.Message.Chat.ID, FormatTaskList(tasks, role), markup)
}

// HandleDisconnect обрабатывает /disconnect [слот]
func (h *Handlers) HandleDisconnect(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	telegramID := profile.Person.ID

	active, err := h.activeConnections(ctx, telegramID, profile.Role())
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	if len(active) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🔌 Активных связей нет.")
		return
	}

	if args := commandArgs(update.Message.Text); len(args) > 0 {
		slot, err := parseSlot(args[0])
		if err != nil {
			h.sendError(ctx, b, update.Message.Chat.ID, "❌ Номер слота от 1 до 5.")
			return
		}
		filtered := active[:0]
		for _, c := range active {
			if c.Slot == slot {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			h.sendError(ctx, b, update.Message.Chat.ID, fmt.Sprintf("❌ На слоте %d нет связи.", slot))
			return
		}
		active = filtered
	}

	if len(active) == 1 {
		h.sendWithKeyboard(ctx, b, update.Message.Chat.ID,
			fmt.Sprintf("🔌 Отключить связь на слоте %d?\n\nИстория сообщений сохранится.", active[0].Slot),
			callbacks.ConfirmDisconnectKeyboard(active[0].ID))
		return
	}

	h.sendWithKeyboard(ctx, b, update.Message.Chat.ID, "🔌 Какую связь отключить?", callbacks.DisconnectKeyboard(active))
}

// HandleFeedback обрабатывает /feedback [текст]
func (h *Handlers) HandleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireProfile(ctx, b, update); !ok {
		return
	}

	text := commandPayload(update.Message.Text)
	if text == "" {
		h.stateManager.SetState(update.Message.From.ID, state.StateAwaitingFeedback)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✍️ Напишите, что улучшить или что сломалось.\n\nОтмена: /cancel")
		return
	}

	h.submitFeedback(ctx, b, update, text)
}

func (h *Handlers) handleFeedbackText(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.stateManager.ClearState(update.Message.From.ID)
	h.submitFeedback(ctx, b, update, strings.TrimSpace(update.Message.Text))
}

func (h *Handlers) submitFeedback(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	if err := checkLength(text, FeedbackMinLength, FeedbackMaxLength); err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Отзыв: "+err.Error())
		return
	}

	if _, err := h.adminService.SubmitFeedback(ctx, update.Message.From.ID, text); err != nil {
		h.logger.Error("Failed to submit feedback", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось отправить отзыв. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "🙏 Спасибо! Отзыв отправлен.")
}

// HandleLanguage обрабатывает /language [код]
func (h *Handlers) HandleLanguage(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		codes := make([]string, 0, len(translator.Supported))
		for _, tag := range translator.Supported {
			codes = append(codes, tag.String())
		}
		h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"🌐 Ваш язык: %s\n\nСменить: /language КОД\nДоступно: %s",
			profile.Person.Language(), strings.Join(codes, ", "),
		))
		return
	}

	tag, ok := translator.Match(args[0])
	if !ok {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Язык не поддерживается. Список: /language")
		return
	}

	if err := h.userService.SetLanguage(ctx, profile.Person.ID, tag.String()); err != nil {
		h.logger.Error("Failed to set language", zap.Int64("telegram_id", profile.Person.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("🌐 Теперь сообщения будут переводиться на %s.", tag))
}

// HandleLeave обрабатывает /leave: разрывает связи и снимает роли, история остаётся
func (h *Handlers) HandleLeave(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	telegramID := profile.Person.ID

	retired, err := h.userService.SoftDelete(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to soft delete person", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.stateManager.SelectSlot(telegramID, 0)

	for _, c := range retired {
		if partnerID, _ := c.PartnerOf(telegramID); partnerID != 0 {
			h.Notify(ctx, b, partnerID, "🔌 Собеседник покинул бот. Переписка остановлена.")
		}
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Готово. Разорвано связей: %d.\n\nВернуться можно в любой момент через /start",
		len(retired),
	))
}

// activeConnections активные связи пользователя в его роли
func (h *Handlers) activeConnections(ctx context.Context, telegramID int64, role model.Role) ([]*model.Connection, error) {
	switch role {
	case model.RoleSupervisor:
		return h.connectionService.ListActiveBySupervisor(ctx, telegramID)
	case model.RoleSubordinate:
		conn, err := h.connectionService.GetActiveBySubordinate(ctx, telegramID)
		if err != nil || conn == nil {
			return nil, err
		}
		return []*model.Connection{conn}, nil
	}
	return nil, nil
}
