package formatting

// Pluralize выбирает форму слова по правилам русского языка: one (1, 21), few (2-4, 22-24), many
func Pluralize(count int64, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeMessages возвращает правильное склонение слова "сообщение"
func PluralizeMessages(count int64) string {
	return Pluralize(count, "сообщение", "сообщения", "сообщений")
}

// PluralizeTasks возвращает правильное склонение слова "задача"
func PluralizeTasks(count int64) string {
	return Pluralize(count, "задача", "задачи", "задач")
}
