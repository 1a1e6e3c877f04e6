package formatting

import "github.com/Freeeeeet/relay_bot/internal/model"

// StatusDisplay emoji и текст для статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetTaskStatusDisplay возвращает emoji и текст для статуса задачи
func GetTaskStatusDisplay(status model.TaskStatus) StatusDisplay {
	displays := map[model.TaskStatus]StatusDisplay{
		model.TaskStatusPending:   {"⏳", "В работе"},
		model.TaskStatusCompleted: {"✅", "Выполнена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// GetSubscriptionStatusDisplay возвращает emoji и текст для статуса подписки
func GetSubscriptionStatusDisplay(status model.SubscriptionStatus) StatusDisplay {
	displays := map[model.SubscriptionStatus]StatusDisplay{
		model.SubscriptionStatusNone:      {"🆓", "Бесплатный тариф"},
		model.SubscriptionStatusActive:    {"💎", "Активна"},
		model.SubscriptionStatusCancelled: {"🕓", "Отменена"},
		model.SubscriptionStatusPaused:    {"⏸", "Приостановлена"},
		model.SubscriptionStatusExpired:   {"⚫️", "Истекла"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
