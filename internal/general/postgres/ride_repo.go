package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unipool/internal/domain/ride"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

const rideColumns = `
	id, created_at, updated_at, driver_id,
	pickup_address, pickup_lat, pickup_lng,
	destination_address, destination_lat, destination_lng,
	departure_time, total_seats, available_seats, price_per_seat,
	status, completed_at, cancelled_at`

// Create inserts a new ride row.
func (repo *RideRepo) Create(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO rides (
			driver_id,
			pickup_address, pickup_lat, pickup_lng,
			destination_address, destination_lat, destination_lng,
			departure_time, total_seats, available_seats, price_per_seat, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`,
		r.DriverID,
		r.Pickup.Address, r.Pickup.Latitude, r.Pickup.Longitude,
		r.Destination.Address, r.Destination.Latitude, r.Destination.Longitude,
		r.DepartureTime, r.TotalSeats, r.AvailableSeats, r.PricePerSeat,
		r.Status.String(),
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}

	return nil
}

// FindByID fetches a ride by primary key. Returns (nil, nil) when absent.
func (repo *RideRepo) FindByID(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+rideColumns+` FROM rides WHERE id = $1`, id)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ride by id: %w", err)
	}
	return r, nil
}

// FindByDriverID returns all rides posted by a driver, newest first.
func (repo *RideRepo) FindByDriverID(ctx context.Context, driverID string) ([]*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT`+rideColumns+`
		FROM rides
		WHERE driver_id = $1
		ORDER BY created_at DESC`, driverID)
	if err != nil {
		return nil, fmt.Errorf("query rides by driver: %w", err)
	}
	defer rows.Close()

	var rides []*ride.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return rides, nil
}

// ReserveSeats decrements the cached seat counter with a conditional
// update so two riders racing for the last seats cannot both succeed.
// Reports false when the ride is missing, inactive, or short on seats.
func (repo *RideRepo) ReserveSeats(ctx context.Context, rideID string, seats int) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET available_seats = available_seats - $2, updated_at = now()
		WHERE id = $1 AND status = 'active' AND available_seats >= $2
	`, rideID, seats)
	if err != nil {
		return false, fmt.Errorf("reserve seats: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseSeats returns seats to the counter, capped at total capacity.
func (repo *RideRepo) ReleaseSeats(ctx context.Context, rideID string, seats int) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE rides
		SET available_seats = LEAST(available_seats + $2, total_seats), updated_at = now()
		WHERE id = $1
	`, rideID, seats)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	return nil
}

// UpdateStatus moves a ride to a new status stamping the matching
// lifecycle column.
func (repo *RideRepo) UpdateStatus(ctx context.Context, id string, status ride.Status, ts time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var column string
	switch status {
	case ride.StatusCompleted:
		column = "completed_at"
	case ride.StatusCancelled:
		column = "cancelled_at"
	default:
		column = ""
	}

	query := `UPDATE rides SET status = $2, updated_at = now() WHERE id = $1`
	if column != "" {
		query = fmt.Sprintf(`UPDATE rides SET status = $2, %s = $3, updated_at = now() WHERE id = $1`, column)
		_, err = tx.Exec(ctx, query, id, status.String(), ts)
	} else {
		_, err = tx.Exec(ctx, query, id, status.String())
	}
	if err != nil {
		return fmt.Errorf("update ride status: %w", err)
	}
	return nil
}

// CountByDriverAndStatus counts a driver's rides in one status.
func (repo *RideRepo) CountByDriverAndStatus(ctx context.Context, driverID string, status ride.Status) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides WHERE driver_id = $1 AND status = $2
	`, driverID, status.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rides: %w", err)
	}
	return n, nil
}

// scanRide maps one row onto a ride entity.
func scanRide(row pgx.Row) (*ride.Ride, error) {
	var (
		r          ride.Ride
		statusText string
	)
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.DriverID,
		&r.Pickup.Address, &r.Pickup.Latitude, &r.Pickup.Longitude,
		&r.Destination.Address, &r.Destination.Latitude, &r.Destination.Longitude,
		&r.DepartureTime, &r.TotalSeats, &r.AvailableSeats, &r.PricePerSeat,
		&statusText, &r.CompletedAt, &r.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = ride.Status(statusText)
	return &r, nil
}
