package rating

import (
	"errors"
	"strings"
)

// RoleType says which side of the ride the rating targets.
type RoleType string

const (
	RoleDriver RoleType = "driver"
	RoleRider  RoleType = "rider"
)

var ErrInvalidRole = errors.New("role type must be driver or rider")

// ParseRole normalizes and validates a role string.
func ParseRole(in string) (RoleType, error) {
	role := RoleType(strings.ToLower(strings.TrimSpace(in)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether the role is one of the two allowed values.
func (role RoleType) Valid() bool {
	return role == RoleDriver || role == RoleRider
}

// String returns the string representation of the RoleType.
func (role RoleType) String() string {
	return string(role)
}
