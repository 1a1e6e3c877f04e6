package model

import "time"

// Message is an append-only relay record, pruned by age
type Message struct {
	ID             int64     `json:"id"`
	ConnectionID   int64     `json:"connection_id"`
	SenderID       int64     `json:"sender_id"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	SentAt         time.Time `json:"sent_at"`
}

// Activity is one row of the cross-connection monitoring view
type Activity struct {
	Message
	SupervisorID  int64 `json:"supervisor_id"`
	SubordinateID int64 `json:"subordinate_id"`
	Slot          int   `json:"slot"`
}
