package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/relay_bot/internal/config"
	cmdfmt "github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

var errBadSlot = fmt.Errorf("slot must be a number from %d to %d", model.MinSlot, model.MaxSlots)

// commandPayload текст после команды: "/task  купить цемент" -> "купить цемент"
func commandPayload(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// commandArgs аргументы команды через пробел
func commandArgs(text string) []string {
	return strings.Fields(commandPayload(text))
}

// parseSlot разбирает номер слота из аргумента команды
func parseSlot(arg string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !model.ValidSlot(slot) {
		return 0, errBadSlot
	}
	return slot, nil
}

// checkLength проверяет длину текста в символах
func checkLength(text string, min, max int) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n < min:
		return fmt.Errorf("минимум %d символов", min)
	case n > max:
		return fmt.Errorf("максимум %d символов", max)
	}
	return nil
}

// truncate обрезает текст до max символов
func truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max-1]) + "…"
}

// personFromUser собирает Person из данных Telegram
func personFromUser(u *models.User) *model.Person {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return &model.Person{
		ID:           u.ID,
		DisplayName:  name,
		LanguageCode: model.NormalizeLanguage(u.LanguageCode).String(),
	}
}

// FormatConnections список связей с пометкой выбранного слота
func FormatConnections(connections []*model.Connection, viewerID int64, selected int) string {
	if len(connections) == 0 {
		return "🔌 Активных связей нет."
	}

	var sb strings.Builder
	sb.WriteString("🔗 Активные связи:\n")
	for _, c := range connections {
		partnerID, role := c.PartnerOf(viewerID)
		marker := "  "
		if role == model.RoleSupervisor && c.Slot == selected {
			marker = "• "
		}
		fmt.Fprintf(&sb, "\n%sСлот %d: собеседник %d, с %s", marker, c.Slot, partnerID, cmdfmt.FormatDate(c.PairedAt))
	}
	return sb.String()
}

// FormatTaskList список задач; подчинённый видит перевод описания
func FormatTaskList(tasks []*model.Task, role model.Role) string {
	if len(tasks) == 0 {
		return "📭 Открытых задач нет."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %d %s:\n", len(tasks), cmdfmt.PluralizeTasks(int64(len(tasks))))
	for _, t := range tasks {
		display := cmdfmt.GetTaskStatusDisplay(t.Status)
		text := t.Description
		if role == model.RoleSubordinate {
			text = t.DescriptionTranslated
		}
		if role == model.RoleSupervisor && t.Slot != 0 {
			fmt.Fprintf(&sb, "\n%s #%d (слот %d) %s", display.Emoji, t.ID, t.Slot, truncate(text, 120))
			continue
		}
		fmt.Fprintf(&sb, "\n%s #%d %s", display.Emoji, t.ID, truncate(text, 120))
	}
	return sb.String()
}

// FormatNewTask текст задачи для подчинённого
func FormatNewTask(task *model.Task) string {
	return fmt.Sprintf("📌 Новая задача #%d\n\n%s", task.ID, task.DescriptionTranslated)
}

// FormatDelivery текст пересылаемого сообщения для получателя
func FormatDelivery(d *service.Delivery) string {
	text := truncate(d.Message.TranslatedText, MessageMaxLength-32)
	if d.FromSupervisor {
		return "💬 " + text
	}
	return fmt.Sprintf("💬 Слот %d: %s", d.Connection.Slot, text)
}

// FormatSubscription тариф руководителя: подписка или остаток бесплатных сообщений
func FormatSubscription(sub *model.Subscription, usage *model.UsageRecord, limits config.Limits, now time.Time) string {
	status := model.SubscriptionStatusNone
	if sub != nil {
		status = sub.Status
	}
	display := cmdfmt.GetSubscriptionStatusDisplay(status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Подписка: %s", display.Emoji, display.Text)

	if sub.IsActiveAt(now) {
		switch {
		case sub.Status == model.SubscriptionStatusCancelled:
			fmt.Fprintf(&sb, "\nДоступ до %s", cmdfmt.FormatOptionalDate(sub.EndsAt))
		case sub.RenewsAt != nil:
			fmt.Fprintf(&sb, "\nПродление %s", cmdfmt.FormatOptionalDate(sub.RenewsAt))
		}
		return sb.String()
	}

	if !limits.Enabled {
		sb.WriteString("\n\nЛимит сообщений отключён.")
		return sb.String()
	}

	var sent int64
	blocked := false
	if usage != nil {
		sent, blocked = usage.MessagesSent, usage.IsBlocked
	}
	left := limits.FreeMessageLimit - sent
	if left < 0 || blocked {
		left = 0
	}
	fmt.Fprintf(&sb, "\n\nБесплатно осталось: %d %s из %d", left, cmdfmt.PluralizeMessages(left), limits.FreeMessageLimit)
	if blocked {
		sb.WriteString("\n⛔️ Лимит исчерпан. Оформите подписку, чтобы продолжить.")
	}
	return sb.String()
}

// relayErrorText текст для пользователя по ошибке пересылки; пустая строка, если ошибка неожиданная
func relayErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotPaired):
		return "🔌 Нет активной связи. Руководитель: отправьте invite-код подчинённому, подчинённый: /join КОД"
	case errors.Is(err, service.ErrSlotRequired):
		return "🎯 У вас несколько подчинённых. Выберите слот: /slot"
	case errors.Is(err, service.ErrLimitReached):
		return "⛔️ Бесплатные сообщения закончились. Подробнее: /subscription"
	case errors.Is(err, service.ErrNotSupervisor):
		return "❌ Эта команда доступна только руководителям."
	case errors.Is(err, service.ErrPersonNotFound):
		return "❌ Пользователь не найден. Используйте /start для регистрации."
	}
	return ""
}
