package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleMember, PermissionWriteTask, true},
		{RoleMember, PermissionCreatePCR, true},
		{RoleMember, PermissionResolvePCR, false},
		{RoleApprover, PermissionResolvePCR, true},
		{RoleAdmin, PermissionResolvePCR, true},
		{RoleAdmin, PermissionWriteRisk, true},
		{"guest", PermissionWriteTask, false},
		{"", PermissionResolvePCR, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission(1, RoleApprover, PermissionResolvePCR))

	err := CheckPermission(7, RoleMember, PermissionResolvePCR)
	var denied *PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, 7, denied.UserID)
	assert.Equal(t, PermissionResolvePCR, denied.Permission)
}
