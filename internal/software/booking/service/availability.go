package service

import (
	"context"

	"unipool/internal/domain/fault"
	"unipool/internal/ports"
)

// CheckSeatAvailability is the pure read over a ride's seat inventory.
// The confirmed-bookings sum is the canonical source; the ride row's
// cached counter is reconciled against it, and a short-TTL snapshot
// keeps hot rides off the database.
func (service *bookingService) CheckSeatAvailability(ctx context.Context, rideID string, seatsRequested int) (ports.SeatAvailability, error) {
	if seatsRequested < 1 {
		return ports.SeatAvailability{}, fault.Validationf("seats requested must be at least 1")
	}

	if service.cache != nil {
		if snap, err := service.cache.GetAvailability(ctx, rideID); err == nil && snap != nil {
			snap.Available = snap.RemainingSeats >= seatsRequested
			return *snap, nil
		}
	}

	var result ports.SeatAvailability
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.FindByID(txCtx, rideID)
		if err != nil {
			return err
		}
		if r == nil {
			return fault.NotFoundf("ride %s not found", rideID)
		}

		confirmed, err := service.bookingRepo.ConfirmedForRide(txCtx, rideID)
		if err != nil {
			return err
		}

		booked := sumSeats(confirmed)
		remaining := r.TotalSeats - booked
		if remaining < 0 {
			remaining = 0
		}

		if r.AvailableSeats != remaining {
			service.logger.Info(txCtx, "seat_counter_drift", "Cached seat counter disagrees with confirmed bookings", map[string]any{
				"ride_id":         rideID,
				"cached_counter":  r.AvailableSeats,
				"confirmed_seats": booked,
				"derived":         remaining,
			})
		}

		result = ports.SeatAvailability{
			Available:      remaining >= seatsRequested,
			RemainingSeats: remaining,
			TotalSeats:     r.TotalSeats,
			BookedSeats:    booked,
		}
		return nil
	})
	if err != nil {
		return ports.SeatAvailability{}, err
	}

	if service.cache != nil {
		_ = service.cache.SetAvailability(ctx, rideID, &result)
	}

	return result, nil
}
