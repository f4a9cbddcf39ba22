package ports

import (
	"context"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/safety"
	"unipool/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RideRepository defines the methods for managing ride data.
type RideRepository interface {
	Create(ctx context.Context, r *ride.Ride) error
	FindByID(ctx context.Context, id string) (*ride.Ride, error)
	FindByDriverID(ctx context.Context, driverID string) ([]*ride.Ride, error)
	// ReserveSeats decrements the cached seat counter only when enough
	// seats remain and the ride is active; it reports false when the
	// conditional update matched no row.
	ReserveSeats(ctx context.Context, rideID string, seats int) (bool, error)
	// ReleaseSeats returns seats to the counter, capped at total capacity.
	ReleaseSeats(ctx context.Context, rideID string, seats int) error
	UpdateStatus(ctx context.Context, id string, status ride.Status, ts time.Time) error
	CountByDriverAndStatus(ctx context.Context, driverID string, status ride.Status) (int, error)
}

// BookingFilters narrows booking listings.
type BookingFilters struct {
	Status *booking.Status
	RideID *string
}

// BookingRepository defines the methods for managing booking data.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id string) (*booking.Booking, error)
	// FindByRideAndRider returns the rider's most recent booking for the
	// ride, or nil when none exists.
	FindByRideAndRider(ctx context.Context, rideID, riderID string) (*booking.Booking, error)
	FindByUserID(ctx context.Context, riderID string, filters BookingFilters) ([]*booking.Booking, error)
	FindByRideID(ctx context.Context, rideID string) ([]*booking.Booking, error)
	ConfirmedForRide(ctx context.Context, rideID string) ([]*booking.Booking, error)
	Update(ctx context.Context, b *booking.Booking) error
	CountCancelledByRider(ctx context.Context, riderID string) (int, error)
}

// RatingRepository defines the methods for managing rating data.
type RatingRepository interface {
	Create(ctx context.Context, r *rating.Rating) error
	// FindByRideAndRater returns an existing rating for the triple, or nil.
	FindByRideAndRater(ctx context.Context, rideID, raterUserID string, role rating.RoleType) (*rating.Rating, error)
	// FindByUserID lists ratings received by a user, optionally narrowed
	// to one role (nil means both).
	FindByUserID(ctx context.Context, ratedUserID string, role *rating.RoleType) ([]rating.Rating, error)
	FindRecentByUserID(ctx context.Context, ratedUserID string, limit int) ([]rating.Rating, error)
	// FindByRideID lists every rating left on one ride, oldest first.
	FindByRideID(ctx context.Context, rideID string) ([]rating.Rating, error)
}

// NotificationRepository defines the methods for managing notification data.
type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	UpdateDelivery(ctx context.Context, n *notification.Notification) error
	// MarkRead reports false when no notification matched the id/user pair.
	MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error)
	FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// UserRepository defines the methods for managing user data.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	UpdateAggregate(ctx context.Context, userID string, role rating.RoleType, avg float64, count int) error
	UpdateStatus(ctx context.Context, userID string, status user.Status, reason string, at time.Time) error
}

// IncidentRepository archives safety incidents (no-shows and the like).
type IncidentRepository interface {
	Create(ctx context.Context, inc *safety.Incident) error
	CountByUserAndType(ctx context.Context, userID string, kind safety.IncidentType) (int, error)
}

// AdminActiveRide is one active ride joined with its confirmed bookings,
// as read by the dashboard queries.
type AdminActiveRide struct {
	RideID             string
	DriverID           string
	PickupAddress      string
	DestinationAddress string
	DepartureTime      time.Time
	TotalSeats         int
	AvailableSeats     int
	SeatsBooked        int
	ConfirmedBookings  int
}

// AdminRepository serves the dashboard's aggregate queries. Kept apart
// from the entity repositories so the cross-table reads stay read-only.
type AdminRepository interface {
	CountRidesByStatus(ctx context.Context, status ride.Status) (int, error)
	CountRidesCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountBookingsCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountBookingsByStatusBetween(ctx context.Context, statuses []booking.Status, from, to time.Time) (int, error)
	// SumConfirmedAmountBetween totals the amount of every booking
	// confirmed in the window, including ones later completed.
	SumConfirmedAmountBetween(ctx context.Context, from, to time.Time) (float64, error)
	CountUsersByStatus(ctx context.Context, status user.Status) (int, error)
	CountIncidentsBetween(ctx context.Context, from, to time.Time) (int, error)
	ActiveRideSummaries(ctx context.Context, offset, limit int) ([]AdminActiveRide, error)
}
