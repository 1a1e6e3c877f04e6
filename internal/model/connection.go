package model

import "time"

// Slot bounds. A supervisor can hold up to MaxSlots parallel channels.
const (
	MinSlot  = 1
	MaxSlots = 5
)

type ConnectionStatus string

const (
	ConnectionStatusActive  ConnectionStatus = "active"  // Пара работает
	ConnectionStatusRetired ConnectionStatus = "retired" // Терминальное состояние
)

// Connection pairs one supervisor with one subordinate on one slot.
// Retired rows are never reactivated; re-pairing inserts a new row.
type Connection struct {
	ID            int64            `json:"id"`
	SupervisorID  int64            `json:"supervisor_id"`
	SubordinateID int64            `json:"subordinate_id"`
	Slot          int              `json:"slot"`
	Status        ConnectionStatus `json:"status"`
	PairedAt      time.Time        `json:"paired_at"`
	RetiredAt     *time.Time       `json:"retired_at"`
}

// IsActive checks if the connection is still active
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// PartnerOf returns the other side of the pairing and the role the given person plays in it.
func (c *Connection) PartnerOf(personID int64) (int64, Role) {
	switch personID {
	case c.SupervisorID:
		return c.SubordinateID, RoleSupervisor
	case c.SubordinateID:
		return c.SupervisorID, RoleSubordinate
	}
	return 0, RoleNone
}

// ValidSlot checks if slot is inside MinSlot..MaxSlots
func ValidSlot(slot int) bool {
	return slot >= MinSlot && slot <= MaxSlots
}
