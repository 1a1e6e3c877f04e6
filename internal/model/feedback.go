package model

import "time"

// Feedback is a free-form note a person left through the bot
type Feedback struct {
	ID        int64      `json:"id"`
	PersonID  int64      `json:"person_id"`
	Text      string     `json:"text"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}
