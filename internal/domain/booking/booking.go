package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Seat request bounds for a single booking.
const (
	MinSeatsPerBooking = 1
	MaxSeatsPerBooking = 4
)

// Booking is the domain entity corresponding to the `bookings` table.
type Booking struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors & parent ride
	RideID  string
	RiderID string

	// Claim
	SeatsRequested  int
	PickupPoint     string
	SpecialRequests *string

	// Money
	TotalAmount    float64
	RefundAmount   float64
	PenaltyApplied float64

	// Core state
	Status      Status
	BookingCode string

	// Lifecycle timestamps
	BookingTime        time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

var (
	ErrRideRequired      = errors.New("ride id is required")
	ErrRiderRequired     = errors.New("rider id is required")
	ErrPickupRequired    = errors.New("pickup point is required")
	ErrSeatsOutOfRange   = fmt.Errorf("seats requested must be between %d and %d", MinSeatsPerBooking, MaxSeatsPerBooking)
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrNotOwnedByRider   = errors.New("booking does not belong to this rider")
	ErrAlreadyTerminal   = errors.New("booking is already in a terminal state")
	ErrNegativePrice     = errors.New("price per seat must not be negative")
)

// NewBooking creates a confirmed booking with a generated booking code.
// totalAmount = pricePerSeat * seats.
func NewBooking(rideID, riderID string, seats int, pickupPoint string, specialRequests string, pricePerSeat float64) (*Booking, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, ErrRideRequired
	}
	if strings.TrimSpace(riderID) == "" {
		return nil, ErrRiderRequired
	}
	if strings.TrimSpace(pickupPoint) == "" {
		return nil, ErrPickupRequired
	}
	if seats < MinSeatsPerBooking || seats > MaxSeatsPerBooking {
		return nil, ErrSeatsOutOfRange
	}
	if pricePerSeat < 0 {
		return nil, ErrNegativePrice
	}

	now := time.Now().UTC()
	b := &Booking{
		CreatedAt:      now,
		UpdatedAt:      now,
		RideID:         rideID,
		RiderID:        riderID,
		SeatsRequested: seats,
		PickupPoint:    strings.TrimSpace(pickupPoint),
		Status:         StatusConfirmed,
		BookingCode:    GenerateBookingCode(),
		TotalAmount:    pricePerSeat * float64(seats),
		BookingTime:    now,
	}
	if sr := strings.TrimSpace(specialRequests); sr != "" {
		b.SpecialRequests = &sr
	}
	return b, nil
}

// CancellableBy reports whether the rider owns this booking and it is
// still in a live state.
func (b *Booking) CancellableBy(riderID string) error {
	if b.RiderID != riderID {
		return ErrNotOwnedByRider
	}
	if b.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	return nil
}

// Cancel applies a cancellation outcome and moves the booking to its
// cancellation state (cancelled_late for the <1h tier).
func (b *Booking) Cancel(outcome CancellationOutcome, reason string, at time.Time) error {
	next := StatusCancelled
	if outcome.Tier == TierLate {
		next = StatusCancelledLate
	}
	if !b.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	b.RefundAmount = outcome.RefundAmount
	b.PenaltyApplied = outcome.PenaltyApplied
	b.CancelledAt = &at
	if rs := strings.TrimSpace(reason); rs != "" {
		b.CancellationReason = &rs
	}
	b.setStatus(next)
	return nil
}

// Reject transitions pending -> rejected (driver declined).
func (b *Booking) Reject() error {
	if !b.Status.CanTransitionTo(StatusRejected) {
		return ErrInvalidTransition
	}
	b.setStatus(StatusRejected)
	return nil
}

// Complete transitions confirmed -> completed when the ride finishes.
func (b *Booking) Complete() error {
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	b.setStatus(StatusCompleted)
	return nil
}

// GenerateBookingCode returns a code like BK_20250114_190233_A3F.
func GenerateBookingCode() string {
	now := time.Now().UTC()
	var suffix [2]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("BK_%04d%02d%02d_%02d%02d%02d_%X",
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		suffix,
	)
}

// ----- internal helpers -----

func (b *Booking) setStatus(status Status) {
	b.Status = status
	b.touch()
}

func (b *Booking) touch() {
	b.UpdatedAt = time.Now().UTC()
}
