package callbacks

import (
	"fmt"
	"strconv"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

// TaskKeyboard кнопка "выполнено" под задачей у подчинённого
func TaskKeyboard(taskID int64) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(keyboard.Button("✅ Выполнено", TaskDone+strconv.FormatInt(taskID, 10))).
		Build()
}

// SlotsKeyboard выбор слота руководителем; текущий помечен точкой
func SlotsKeyboard(connections []*model.Connection, selected int) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(connections))
	for _, c := range connections {
		label := fmt.Sprintf("Слот %d", c.Slot)
		if c.Slot == selected {
			label = "• " + label
		}
		buttons = append(buttons, keyboard.Button(label, SelectSlot+strconv.Itoa(c.Slot)))
	}

	b := keyboard.NewBuilder().Grid(3, buttons...)
	if selected != 0 {
		b.Row(keyboard.Button("↩️ Сбросить выбор", SelectSlot+"0"))
	}
	return b.Build()
}

// DisconnectKeyboard список связей для разрыва
func DisconnectKeyboard(connections []*model.Connection) *models.InlineKeyboardMarkup {
	b := keyboard.NewBuilder()
	for _, c := range connections {
		b.Row(keyboard.Button(
			fmt.Sprintf("🔌 Слот %d", c.Slot),
			Disconnect+strconv.FormatInt(c.ID, 10),
		))
	}
	return b.Build()
}

// ConfirmDisconnectKeyboard подтверждение разрыва связи
func ConfirmDisconnectKeyboard(connectionID int64) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button("✅ Да, отключить", ConfirmDisconnect+strconv.FormatInt(connectionID, 10)),
			keyboard.Button("❌ Нет", KeepConnection),
		).
		Build()
}
