package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role       Role
		canCreate  bool
		canEdit    bool
		canDeliver bool
		canDelete  bool
	}{
		{RoleAdmin, true, true, true, true},
		{RoleSalesperson, true, true, false, false},
		{Role("GUEST"), false, false, false, false},
		{Role(""), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.canCreate, tt.role.CanCreate())
			assert.Equal(t, tt.canEdit, tt.role.CanEdit())
			assert.Equal(t, tt.canDeliver, tt.role.CanDeliver())
			assert.Equal(t, tt.canDelete, tt.role.CanDelete())
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleSalesperson.Valid())
	assert.False(t, Role("admin").Valid())
}
