package models

import "github.com/google/uuid"

// Identity is the caller resolved from a verified bearer token. A nil
// *Identity means the request is anonymous.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
