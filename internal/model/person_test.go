package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "pt", NormalizeLanguage("pt-br").String())
	assert.Equal(t, "ru", NormalizeLanguage("RU").String())
	assert.Equal(t, DefaultLanguage, NormalizeLanguage("").String())
	assert.Equal(t, DefaultLanguage, NormalizeLanguage("not a tag!").String())
}

func TestConnectionPartnerOf(t *testing.T) {
	c := &Connection{SupervisorID: 1001, SubordinateID: 2001, Slot: 1, Status: ConnectionStatusActive}

	partner, role := c.PartnerOf(1001)
	assert.Equal(t, int64(2001), partner)
	assert.Equal(t, RoleSupervisor, role)

	partner, role = c.PartnerOf(2001)
	assert.Equal(t, int64(1001), partner)
	assert.Equal(t, RoleSubordinate, role)

	_, role = c.PartnerOf(42)
	assert.Equal(t, RoleNone, role)
}

func TestValidSlot(t *testing.T) {
	assert.False(t, ValidSlot(0))
	assert.True(t, ValidSlot(1))
	assert.True(t, ValidSlot(MaxSlots))
	assert.False(t, ValidSlot(MaxSlots+1))
}
