package models

// RoleType defines the user role type
type RoleType string

const (
	RoleParent  RoleType = "parent"
	RoleStudent RoleType = "student"
	RoleAdmin   RoleType = "admin"
)

// ValidRole reports whether the given value is one of the known role types.
func ValidRole(r RoleType) bool {
	switch r {
	case RoleParent, RoleStudent, RoleAdmin:
		return true
	}
	return false
}
