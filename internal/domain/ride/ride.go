package ride

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Location is a named point on the map; the address string is what riders
// see, the coordinates are what safety checks measure.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors
	DriverID string

	// Route & schedule
	Pickup        Location
	Destination   Location
	DepartureTime time.Time

	// Seat inventory. AvailableSeats is a cached counter mutated only by
	// conditional storage-level updates; the confirmed-bookings sum is the
	// canonical source on reads.
	TotalSeats     int
	AvailableSeats int

	// Pricing (per seat)
	PricePerSeat float64

	// Core state
	Status Status

	// Lifecycle timestamps
	CompletedAt *time.Time
	CancelledAt *time.Time
}

var (
	ErrDriverRequired        = errors.New("driver id is required")
	ErrPickupRequired        = errors.New("pickup address is required")
	ErrDestinationRequired   = errors.New("destination address is required")
	ErrSeatsOutOfRange       = errors.New("total seats must be between 1 and 4")
	ErrDepartureInPast       = errors.New("departure time must be in the future")
	ErrNegativePrice         = errors.New("price per seat must not be negative")
	ErrInvalidTransition     = errors.New("invalid ride status transition")
	ErrRideNotActive         = errors.New("ride is not active")
	ErrInsufficientSeatCount = errors.New("not enough seats available")
)

// NewRide creates a ride in active state with all seats available.
func NewRide(driverID string, pickup, destination Location, departure time.Time, totalSeats int, pricePerSeat float64) (*Ride, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, ErrDriverRequired
	}
	if strings.TrimSpace(pickup.Address) == "" {
		return nil, ErrPickupRequired
	}
	if strings.TrimSpace(destination.Address) == "" {
		return nil, ErrDestinationRequired
	}
	if totalSeats < 1 || totalSeats > 4 {
		return nil, ErrSeatsOutOfRange
	}
	if pricePerSeat < 0 {
		return nil, ErrNegativePrice
	}
	now := time.Now().UTC()
	if !departure.After(now) {
		return nil, ErrDepartureInPast
	}

	return &Ride{
		CreatedAt:      now,
		UpdatedAt:      now,
		DriverID:       driverID,
		Pickup:         pickup,
		Destination:    destination,
		DepartureTime:  departure,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		PricePerSeat:   pricePerSeat,
		Status:         StatusActive,
	}, nil
}

// Complete transitions active -> completed.
func (ride *Ride) Complete() error {
	if !ride.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	ride.CompletedAt = &now
	ride.setStatus(StatusCompleted)
	return nil
}

// Cancel transitions active -> cancelled.
func (ride *Ride) Cancel() error {
	if !ride.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	ride.CancelledAt = &now
	ride.setStatus(StatusCancelled)
	return nil
}

// HoursUntilDeparture returns the (possibly negative) number of hours
// between now and the scheduled departure.
func (ride *Ride) HoursUntilDeparture(now time.Time) float64 {
	return ride.DepartureTime.Sub(now).Hours()
}

// HaversineKM is the great-circle distance in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0 // Earth radius in km
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// TripDistanceKM measures pickup to destination.
func (ride *Ride) TripDistanceKM() float64 {
	return HaversineKM(
		ride.Pickup.Latitude, ride.Pickup.Longitude,
		ride.Destination.Latitude, ride.Destination.Longitude,
	)
}

// ----- internal helpers -----

func (ride *Ride) setStatus(status Status) {
	ride.Status = status
	ride.touch()
}

func (ride *Ride) touch() {
	ride.UpdatedAt = time.Now().UTC()
}
