package booking

import (
	"errors"
	"strings"
)

// Status is a booking status as stored in the `bookings` table.
type Status string

const (
	StatusPending       Status = "pending"
	StatusConfirmed     Status = "confirmed"
	StatusCancelled     Status = "cancelled"
	StatusCancelledLate Status = "cancelled_late"
	StatusRejected      Status = "rejected"
	StatusCompleted     Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid booking status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed booking status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCancelledLate, StatusRejected, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// Transitions only move forward; terminal states never re-activate.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled ||
			next == StatusCancelledLate || next == StatusRejected
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCancelledLate ||
			next == StatusCompleted
	case StatusCancelled, StatusCancelledLate, StatusRejected, StatusCompleted:
		return false
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	switch status {
	case StatusCancelled, StatusCancelledLate, StatusRejected, StatusCompleted:
		return true
	default:
		return false
	}
}

// Cancelled reports whether the booking ended in either cancellation state.
// A booking in any other status still holds its seats.
func (status Status) Cancelled() bool {
	return status == StatusCancelled || status == StatusCancelledLate
}
