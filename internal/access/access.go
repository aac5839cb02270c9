// Package access implements row-level access control. Policy is enforced at
// serialisation time, not in SQL: compiled searches return candidate rows and
// each row is checked against the requesting user before projection.
package access

import (
	"github.com/daleel/api/internal/types"
)

// CanAccess reports whether the user may view an entity bearing the given
// access roles. Admins always pass; an entity with no roles is unrestricted;
// otherwise the user must share at least one role with the entity.
func CanAccess(user *types.UserContext, entityRoles []int64) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if len(entityRoles) == 0 {
		return true
	}
	for _, er := range entityRoles {
		for _, ur := range user.Roles {
			if er == ur {
				return true
			}
		}
	}
	return false
}

// CanEdit reports whether the user may mutate an entity. Only Admins or the
// entity's assigned user may update.
func CanEdit(user *types.UserContext, assignedToID *int64) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return assignedToID != nil && *assignedToID == user.ID
}

// RestrictedStub is the payload returned in place of an entity the user may
// not view. It preserves the row's existence for pagination without
// disclosing any attribute.
type RestrictedStub struct {
	ID         int64 `json:"id"`
	Restricted bool  `json:"restricted"`
}

// NewRestrictedStub builds the stub for an entity ID.
func NewRestrictedStub(id int64) RestrictedStub {
	return RestrictedStub{ID: id, Restricted: true}
}
