// Package translator описывает внешний переводчик. Генерация текста живёт вне бота,
// здесь только контракт и реализация без перевода.
package translator

import (
	"context"

	"golang.org/x/text/language"
)

// Translator переводит text с языка from на язык to
type Translator interface {
	Translate(ctx context.Context, text string, from, to language.Tag) (string, error)
}

// Func адаптер обычной функции к Translator
type Func func(ctx context.Context, text string, from, to language.Tag) (string, error)

func (f Func) Translate(ctx context.Context, text string, from, to language.Tag) (string, error) {
	return f(ctx, text, from, to)
}

// Passthrough возвращает текст без изменений
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text string, _, _ language.Tag) (string, error) {
	return text, nil
}

// Supported языки, которые можно выбрать командой /language
var Supported = []language.Tag{
	language.English,
	language.Russian,
	language.Spanish,
	language.Portuguese,
	language.German,
	language.French,
	language.Italian,
	language.Turkish,
	language.Ukrainian,
	language.Chinese,
}

var matcher = language.NewMatcher(Supported)

// Match подбирает поддерживаемый язык для кода вроде "pt-BR" или "es_MX".
// ok=false, если уверенного совпадения нет.
func Match(code string) (language.Tag, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return language.Und, false
	}
	return Supported[idx], true
}
