package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AnswerCallback гасит часики на кнопке; text показывается коротким уведомлением
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	answer(ctx, b, callbackID, text, false)
}

// AnswerCallbackAlert нужен для отказов: чужая задача, связь уже разорвана
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	answer(ctx, b, callbackID, text, true)
}

func answer(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// GetMessageFromCallback сообщение с кнопками; nil, если оно старше 48 часов и недоступно боту
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	return callback.Message.Message
}

// ParseIDFromCallback достаёт id задачи или связи из "task_done:42", "disconnect:7"
func ParseIDFromCallback(data string) (int64, error) {
	_, raw, ok := strings.Cut(data, ":")
	if !ok || strings.Contains(raw, ":") {
		return 0, fmt.Errorf("invalid callback data %q", data)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// EditCallbackMessage заменяет текст и клавиатуру сообщения, на котором нажали кнопку
func EditCallbackMessage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, text string, markup models.ReplyMarkup) error {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		return fmt.Errorf("callback message is not accessible")
	}
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: markup,
	})
	return err
}
