package handlers

// Ограничения пользовательского ввода
const (
	// Текст задачи
	TaskMinLength = 3
	TaskMaxLength = 1000

	// Отзыв
	FeedbackMinLength = 5
	FeedbackMaxLength = 2000

	// Категория руководителя ("строительство", "уборка", ...)
	CategoryMaxLength = 64

	// Лимит Telegram на длину сообщения
	MessageMaxLength = 4096

	// Сколько задач показывать в /tasks
	TaskListLimit = 20
)
