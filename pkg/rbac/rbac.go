package rbac

const (
	PermissionCreateProject = "project:create"
	PermissionUpdateProject = "project:update"
	PermissionWriteTask     = "task:write"
	PermissionWriteRisk     = "risk:write"
	PermissionCreatePCR     = "pcr:create"
	PermissionResolvePCR    = "pcr:resolve"
	PermissionGenerateDoc   = "pcr:document"
)

// Role names match the role claim carried in the JWT.
const (
	RoleMember   = "member"
	RoleApprover = "approver"
	RoleAdmin    = "admin"
)

var memberPermissions = []string{
	PermissionCreateProject,
	PermissionUpdateProject,
	PermissionWriteTask,
	PermissionWriteRisk,
	PermissionCreatePCR,
	PermissionGenerateDoc,
}

var rolePermissions = map[string][]string{
	RoleMember:   memberPermissions,
	RoleApprover: append(append([]string{}, memberPermissions...), PermissionResolvePCR),
	RoleAdmin:    append(append([]string{}, memberPermissions...), PermissionResolvePCR),
}

// HasPermission reports whether role grants permission. Unknown roles grant nothing.
func HasPermission(role, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission is HasPermission returning an error.
func CheckPermission(userID int, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

type PermissionDeniedError struct {
	UserID     int
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions: " + e.Permission
}
