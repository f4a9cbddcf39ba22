package postgres

import (
	"context"
	"fmt"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/safety"
	"unipool/internal/domain/user"
	"unipool/internal/ports"
)

// AdminRepo runs the dashboard's read-only aggregate queries.
type AdminRepo struct{}

// NewAdminRepo constructs a new AdminRepo.
func NewAdminRepo() ports.AdminRepository {
	return &AdminRepo{}
}

func (repo *AdminRepo) CountRidesByStatus(ctx context.Context, status ride.Status) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides WHERE status = $1
	`, status.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rides by status: %w", err)
	}
	return n, nil
}

func (repo *AdminRepo) CountRidesCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rides created: %w", err)
	}
	return n, nil
}

func (repo *AdminRepo) CountBookingsCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings created: %w", err)
	}
	return n, nil
}

func (repo *AdminRepo) CountBookingsByStatusBetween(ctx context.Context, statuses []booking.Status, from, to time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE status = ANY($1) AND created_at >= $2 AND created_at < $3
	`, names, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings by status: %w", err)
	}
	return n, nil
}

func (repo *AdminRepo) SumConfirmedAmountBetween(ctx context.Context, from, to time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	// completed bookings started out confirmed, so they count too
	var total float64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM bookings
		WHERE status IN ('confirmed', 'completed')
		  AND created_at >= $1 AND created_at < $2
	`, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum confirmed amount: %w", err)
	}
	return total, nil
}

func (repo *AdminRepo) CountUsersByStatus(ctx context.Context, status user.Status) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE status = $1
	`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users by status: %w", err)
	}
	return n, nil
}

func (repo *AdminRepo) CountIncidentsBetween(ctx context.Context, from, to time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM safety_incidents
		WHERE type = $1 AND created_at >= $2 AND created_at < $3
	`, string(safety.IncidentNoShow), from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// ActiveRideSummaries joins active rides with their confirmed bookings,
// soonest departure first.
func (repo *AdminRepo) ActiveRideSummaries(ctx context.Context, offset, limit int) ([]ports.AdminActiveRide, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT
			r.id, r.driver_id,
			r.pickup_address, r.destination_address,
			r.departure_time, r.total_seats, r.available_seats,
			COALESCE(SUM(b.seats_requested), 0) AS seats_booked,
			COUNT(b.id) AS confirmed_bookings
		FROM rides r
		LEFT JOIN bookings b ON b.ride_id = r.id AND b.status = 'confirmed'
		WHERE r.status = 'active'
		GROUP BY r.id
		ORDER BY r.departure_time ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query active ride summaries: %w", err)
	}
	defer rows.Close()

	var out []ports.AdminActiveRide
	for rows.Next() {
		var row ports.AdminActiveRide
		err := rows.Scan(
			&row.RideID, &row.DriverID,
			&row.PickupAddress, &row.DestinationAddress,
			&row.DepartureTime, &row.TotalSeats, &row.AvailableSeats,
			&row.SeatsBooked, &row.ConfirmedBookings,
		)
		if err != nil {
			return nil, fmt.Errorf("scan active ride summary: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}
