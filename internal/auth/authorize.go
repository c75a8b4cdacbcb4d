package auth

import (
	"errors"

	"github.com/davidgq/ecom-api/internal/user"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrSelfDemotion = errors.New("super admins cannot demote themselves")
)

// Authorize passes when the identity's role is in the allowed set.
// There is no role ordering: admin-level access means the explicit set
// {admin, super_admin}.
func Authorize(id Identity, allowed ...user.Role) error {
	for _, r := range allowed {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// AuthorizeExact gates actions reserved for a single role.
func AuthorizeExact(id Identity, role user.Role) error {
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}

// CheckRoleChange guards role updates: an acting super admin may not
// assign themselves anything below super_admin. This keeps the acting
// admin from locking themselves out; it does not prove another
// super admin still exists.
func CheckRoleChange(actor Identity, targetID string, newRole user.Role) error {
	if actor.UserID == targetID && newRole != user.RoleSuperAdmin {
		return ErrSelfDemotion
	}
	return nil
}
