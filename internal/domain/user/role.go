package user

import "fmt"

// Role is the RBAC role carried in access tokens.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole converts raw text into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("invalid user role: %q", raw)
	}
	return r, nil
}

// Valid reports whether the role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
