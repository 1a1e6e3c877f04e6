package state

// UserState текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	StateAwaitingTask     UserState = "awaiting_task"     // руководитель вводит текст задачи
	StateAwaitingFeedback UserState = "awaiting_feedback" // пользователь пишет отзыв
	StateAwaitingInvite   UserState = "awaiting_invite"   // подчинённый вводит invite-код
)

// UserData UI-состояние одного пользователя. Ни в каких инвариантах хранилища не участвует.
type UserData struct {
	State UserState
	Slot  int // выбранный руководителем слот, 0 если не выбран
}
