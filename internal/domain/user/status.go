package user

import (
	"errors"
	"strings"
)

// Status is an account standing as stored in the `users` table.
type Status string

const (
	StatusActive        Status = "active"
	StatusFlagged       Status = "flagged"        // consistently low ratings
	StatusSafetyFlagged Status = "safety_flagged" // safety incidents
)

var ErrInvalidStatus = errors.New("invalid user status")

// ParseStatus normalizes and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed constants.
func (status Status) Valid() bool {
	switch status {
	case StatusActive, StatusFlagged, StatusSafetyFlagged:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Flagged reports whether the account is in any flagged state.
func (status Status) Flagged() bool {
	return status == StatusFlagged || status == StatusSafetyFlagged
}
