// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access (user level 0)
	RoleAdmin UserRole = "admin"

	// Default role for registered readers (user level 1)
	RoleMember UserRole = "member"
)

// Stored user levels. Lower is more privileged.
const (
	LevelAdmin  = 0
	LevelMember = 1
)

// RoleFromLevel maps a stored user level to its role.
func RoleFromLevel(level int) UserRole {
	if level == LevelAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleMember:
		return 10
	default:
		return 0
	}
}
