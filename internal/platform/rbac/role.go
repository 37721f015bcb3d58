// Package rbac implements the four-level role order governing pod access.
// All decision functions are pure: no I/O, no mutable state, safe to call anywhere.
// Unknown roles carry no privilege; every check fails closed.
package rbac

// Role is a member's privilege level within a pod.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleAdmin    Role = "admin"
	RoleEditor   Role = "editor"
	RoleReadOnly Role = "read_only"
)

// hierarchy orders roles from most to least privileged. Rank is the index.
var hierarchy = [...]Role{RoleCreator, RoleAdmin, RoleEditor, RoleReadOnly}

// Rank returns the privilege rank of role (creator=0 … read_only=3) and true,
// or (0, false) if the role is not recognized.
func Rank(role Role) (int, bool) {
	for i, r := range hierarchy {
		if r == role {
			return i, true
		}
	}
	return 0, false
}

// HasMinRole reports whether actual holds at least the privilege of required.
// Returns false if either role is unrecognized.
func HasMinRole(actual, required Role) bool {
	a, okA := Rank(actual)
	r, okR := Rank(required)
	return okA && okR && a <= r
}

// CanEditContent reports whether role may create, edit, or delete notes in a pod.
func CanEditContent(role Role) bool {
	return HasMinRole(role, RoleEditor)
}

// CanManageMembers reports whether role may invite, remove, or re-role members.
func CanManageMembers(role Role) bool {
	return HasMinRole(role, RoleAdmin)
}

// IsCreator reports whether role is the immutable owning role. The creator's
// membership can never be removed or demoted.
func IsCreator(role Role) bool {
	return role == RoleCreator
}

// Label returns the human-readable name for role. Unrecognized roles pass
// through unchanged so display code never has to special-case them.
func Label(role Role) string {
	switch role {
	case RoleCreator:
		return "Creator"
	case RoleAdmin:
		return "Admin"
	case RoleEditor:
		return "Editor"
	case RoleReadOnly:
		return "Read Only"
	}
	return string(role)
}
