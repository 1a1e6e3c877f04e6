package model

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task belongs to the connection that existed when it was created, not to the person pair.
// Both descriptions are immutable after insert.
type Task struct {
	ID                    int64      `json:"id"`
	ConnectionID          int64      `json:"connection_id"`
	Description           string     `json:"description"`            // язык руководителя
	DescriptionTranslated string     `json:"description_translated"` // язык подчинённого
	Status                TaskStatus `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	CompletedAt           *time.Time `json:"completed_at"`

	// Заполняется в выборках с JOIN (не колонка tasks)
	Slot int `json:"slot,omitempty"`
}

// IsCompleted checks if the task is completed
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
