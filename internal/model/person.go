package model

import (
	"time"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when a person never told us their language
const DefaultLanguage = "en"

// Person is one participant, keyed by the platform user id.
// Role is derived from the supervisors/subordinates rows, never stored here.
type Person struct {
	ID           int64     `json:"id"` // Telegram user id
	DisplayName  string    `json:"display_name"`
	LanguageCode string    `json:"language_code"`
	Gender       string    `json:"gender"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Language returns the parsed language tag, falling back to DefaultLanguage
func (p *Person) Language() language.Tag {
	return NormalizeLanguage(p.LanguageCode)
}

// NormalizeLanguage parses a client-supplied code ("pt-br", "EN", "") into a base language tag.
func NormalizeLanguage(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return language.Make(DefaultLanguage)
	}
	base, _ := tag.Base()
	return language.Make(base.String())
}
