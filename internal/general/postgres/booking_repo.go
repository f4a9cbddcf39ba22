package postgres

import (
	"context"
	"errors"
	"fmt"

	"unipool/internal/domain/booking"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// BookingRepo persists bookings using pgx and plain SQL.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

const bookingColumns = `
	id, created_at, updated_at, ride_id, rider_id,
	seats_requested, pickup_point, special_requests,
	total_amount, refund_amount, penalty_applied,
	status, booking_code, booking_time, cancelled_at, cancellation_reason`

// Create inserts a new booking row.
func (repo *BookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (
			ride_id, rider_id, seats_requested, pickup_point, special_requests,
			total_amount, status, booking_code, booking_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		b.RideID, b.RiderID, b.SeatsRequested, b.PickupPoint, b.SpecialRequests,
		b.TotalAmount, b.Status.String(), b.BookingCode, b.BookingTime,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

// FindByID fetches a booking by primary key. Returns (nil, nil) when absent.
func (repo *BookingRepo) FindByID(ctx context.Context, id string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query booking by id: %w", err)
	}
	return b, nil
}

// FindByRideAndRider returns the rider's most recent booking for a ride,
// or (nil, nil) when none exists.
func (repo *BookingRepo) FindByRideAndRider(ctx context.Context, rideID, riderID string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+bookingColumns+`
		FROM bookings
		WHERE ride_id = $1 AND rider_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, rideID, riderID)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query booking by ride and rider: %w", err)
	}
	return b, nil
}

// FindByUserID lists a rider's bookings, optionally filtered.
func (repo *BookingRepo) FindByUserID(ctx context.Context, riderID string, filters ports.BookingFilters) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT` + bookingColumns + ` FROM bookings WHERE rider_id = $1`
	args := []any{riderID}
	if filters.Status != nil {
		args = append(args, filters.Status.String())
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.RideID != nil {
		args = append(args, *filters.RideID)
		query += fmt.Sprintf(" AND ride_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings by rider: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// FindByRideID lists all bookings for a ride.
func (repo *BookingRepo) FindByRideID(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT`+bookingColumns+`
		FROM bookings
		WHERE ride_id = $1
		ORDER BY created_at`, rideID)
	if err != nil {
		return nil, fmt.Errorf("query bookings by ride: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ConfirmedForRide lists confirmed bookings for a ride; their seat sum is
// the canonical booked-seat count.
func (repo *BookingRepo) ConfirmedForRide(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT`+bookingColumns+`
		FROM bookings
		WHERE ride_id = $1 AND status = 'confirmed'
		ORDER BY created_at`, rideID)
	if err != nil {
		return nil, fmt.Errorf("query confirmed bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// Update persists the mutable fields of a booking.
func (repo *BookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2,
		    refund_amount = $3,
		    penalty_applied = $4,
		    cancelled_at = $5,
		    cancellation_reason = $6,
		    updated_at = now()
		WHERE id = $1
	`,
		b.ID, b.Status.String(), b.RefundAmount, b.PenaltyApplied,
		b.CancelledAt, b.CancellationReason,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// CountCancelledByRider counts a rider's cancelled bookings (both tiers).
func (repo *BookingRepo) CountCancelledByRider(ctx context.Context, riderID string) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE rider_id = $1 AND status IN ('cancelled', 'cancelled_late')
	`, riderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cancelled bookings: %w", err)
	}
	return n, nil
}

// ----- scanning helpers -----

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b          booking.Booking
		statusText string
	)
	err := row.Scan(
		&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.RideID, &b.RiderID,
		&b.SeatsRequested, &b.PickupPoint, &b.SpecialRequests,
		&b.TotalAmount, &b.RefundAmount, &b.PenaltyApplied,
		&statusText, &b.BookingCode, &b.BookingTime, &b.CancelledAt, &b.CancellationReason,
	)
	if err != nil {
		return nil, err
	}
	b.Status = booking.Status(statusText)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return bookings, nil
}
