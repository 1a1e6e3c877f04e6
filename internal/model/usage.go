package model

import "time"

// UsageRecord counts messages a supervisor has sent on the free tier.
// IsBlocked is sticky until an explicit reset or unblock.
type UsageRecord struct {
	SupervisorID   int64      `json:"supervisor_id"`
	MessagesSent   int64      `json:"messages_sent"`
	IsBlocked      bool       `json:"is_blocked"`
	FirstMessageAt *time.Time `json:"first_message_at"`
	LastMessageAt  *time.Time `json:"last_message_at"`
}
