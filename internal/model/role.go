package model

import "time"

// Role of a person inside a pairing
type Role string

const (
	RoleNone        Role = ""
	RoleSupervisor  Role = "supervisor"
	RoleSubordinate Role = "subordinate"
)

// Supervisor is the role record of a person who hands out invite codes and owns slots
type Supervisor struct {
	ID         int64      `json:"id"` // = Person.ID
	InviteCode string     `json:"invite_code"`
	Category   string     `json:"category"`
	DeletedAt  *time.Time `json:"deleted_at"` // soft delete, history stays
	CreatedAt  time.Time  `json:"created_at"`
}

// IsDeleted checks if the supervisor was soft-deleted
func (s *Supervisor) IsDeleted() bool {
	return s.DeletedAt != nil
}

// Subordinate is the role record of a person who joins a supervisor's slot
type Subordinate struct {
	ID        int64      `json:"id"` // = Person.ID
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsDeleted checks if the subordinate was soft-deleted
func (s *Subordinate) IsDeleted() bool {
	return s.DeletedAt != nil
}
