package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleSupervisor обрабатывает /supervisor [категория]: выдаёт invite-код
func (h *Handlers) HandleSupervisor(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}

	category := commandPayload(update.Message.Text)
	if utf8.RuneCountInString(category) > CategoryMaxLength {
		h.sendError(ctx, b, update.Message.Chat.ID, fmt.Sprintf("❌ Категория слишком длинная (максимум %d символов).", CategoryMaxLength))
		return
	}
	if category == "" && profile.Supervisor != nil {
		category = profile.Supervisor.Category
	}

	sup, err := h.userService.BecomeSupervisor(ctx, profile.Person.ID, category)
	if err != nil {
		h.logger.Error("Failed to become supervisor", zap.Int64("telegram_id", profile.Person.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось выдать код. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🎓 Вы руководитель.\n\n"+
			"Ваш invite-код: %s\n\n"+
			"Отправьте его подчинённому, он подключится командой:\n/join %s\n\n"+
			"Можно подключить до 5 подчинённых, каждый получает свой слот.",
		sup.InviteCode, sup.InviteCode,
	))
}

// HandleSlot обрабатывает /slot [N]: без аргумента показывает клавиатуру выбора
func (h *Handlers) HandleSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireSupervisor(ctx, b, update)
	if !ok {
		return
	}
	telegramID := profile.Person.ID

	active, err := h.connectionService.ListActiveBySupervisor(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	if len(active) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🔌 Подчинённых пока нет. Отправьте им invite-код из /supervisor")
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.sendWithKeyboard(ctx, b, update.Message.Chat.ID,
			"🎯 Кому отправлять сообщения?",
			callbacks.SlotsKeyboard(active, h.stateManager.SelectedSlot(telegramID)))
		return
	}

	slot, err := parseSlot(args[0])
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Номер слота от 1 до 5.")
		return
	}
	for _, c := range active {
		if c.Slot == slot {
			h.stateManager.SelectSlot(telegramID, slot)
			h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("🎯 Слот %d выбран.", slot))
			return
		}
	}
	h.sendError(ctx, b, update.Message.Chat.ID, fmt.Sprintf("❌ Слот %d свободен.", slot))
}

// HandleTask обрабатывает /task [текст]: без текста переходит в режим ввода
func (h *Handlers) HandleTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireSupervisor(ctx, b, update); !ok {
		return
	}

	description := commandPayload(update.Message.Text)
	if description == "" {
		h.stateManager.SetState(update.Message.From.ID, state.StateAwaitingTask)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "📝 Опишите задачу одним сообщением.\n\nОтмена: /cancel")
		return
	}

	h.assignTask(ctx, b, update, description)
}

// handleTaskText текст задачи в режиме ввода
func (h *Handlers) handleTaskText(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.stateManager.ClearState(update.Message.From.ID)
	h.assignTask(ctx, b, update, strings.TrimSpace(update.Message.Text))
}

func (h *Handlers) assignTask(ctx context.Context, b *bot.Bot, update *models.Update, description string) {
	if err := checkLength(description, TaskMinLength, TaskMaxLength); err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Текст задачи: "+err.Error())
		return
	}

	telegramID := update.Message.From.ID
	slot := h.stateManager.SelectedSlot(telegramID)

	task, conn, err := h.relayService.AssignTask(ctx, telegramID, slot, description)
	if err != nil {
		if text := relayErrorText(err); text != "" {
			h.sendError(ctx, b, update.Message.Chat.ID, text)
			return
		}
		if errors.Is(err, service.ErrConnectionNotActive) {
			h.sendError(ctx, b, update.Message.Chat.ID, "🔌 Связь только что разорвана, задача не создана.")
			return
		}
		h.logger.Error("Failed to assign task", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось создать задачу. Попробуйте позже.")
		return
	}

	h.sendWithKeyboard(ctx, b, conn.SubordinateID, FormatNewTask(task), callbacks.TaskKeyboard(task.ID))
	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("📌 Задача #%d отправлена (слот %d).", task.ID, conn.Slot))
}

// HandleSubscription обрабатывает /subscription
func (h *Handlers) HandleSubscription(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireSupervisor(ctx, b, update)
	if !ok {
		return
	}
	telegramID := profile.Person.ID

	sub, err := h.subscriptionService.Get(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get subscription", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	usage, err := h.usageService.Get(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get usage", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	var markup *models.InlineKeyboardMarkup
	if sub != nil && sub.PortalURL != "" {
		markup = keyboard.NewBuilder().Row(keyboard.URLButton("💳 Управление подпиской", sub.PortalURL)).Build()
	}

	h.sendWithKeyboard(ctx, b, update.Message.Chat.ID,
		FormatSubscription(sub, usage, h.limits.Limits(), time.Now()), markup)
}
