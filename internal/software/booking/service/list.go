package service

import (
	"context"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/rating"
	"unipool/internal/ports"
)

// GetUserBookings lists a rider's bookings enriched with ride and driver
// summaries.
func (service *bookingService) GetUserBookings(ctx context.Context, riderID string, filters ports.BookingFilters) ([]ports.BookingView, error) {
	var views []ports.BookingView
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		bookings, err := service.bookingRepo.FindByUserID(txCtx, riderID, filters)
		if err != nil {
			return err
		}

		views = make([]ports.BookingView, 0, len(bookings))
		for _, b := range bookings {
			view := ports.BookingView{Booking: b}

			r, err := service.rideRepo.FindByID(txCtx, b.RideID)
			if err != nil {
				return err
			}
			if r != nil {
				summary := ports.RideSummary{
					RideID:        r.ID,
					Pickup:        r.Pickup.Address,
					Destination:   r.Destination.Address,
					DepartureTime: r.DepartureTime,
				}
				driver, err := service.userRepo.FindByID(txCtx, r.DriverID)
				if err != nil {
					return err
				}
				if driver != nil {
					summary.DriverName = driver.Name
					summary.DriverRating = driver.EffectiveRating(rating.RoleDriver)
				}
				view.Ride = &summary
			}

			views = append(views, view)
		}
		return nil
	})
	return views, err
}

// GetRideBookings lists a ride's bookings enriched with rider summaries.
// Only the driver of record may see them.
func (service *bookingService) GetRideBookings(ctx context.Context, rideID, driverID string) ([]ports.BookingView, error) {
	var views []ports.BookingView
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.FindByID(txCtx, rideID)
		if err != nil {
			return err
		}
		if r == nil {
			return fault.NotFoundf("ride %s not found", rideID)
		}
		if r.DriverID != driverID {
			return fault.Authorizationf("ride %s does not belong to driver %s", rideID, driverID)
		}

		bookings, err := service.bookingRepo.FindByRideID(txCtx, rideID)
		if err != nil {
			return err
		}

		views = make([]ports.BookingView, 0, len(bookings))
		for _, b := range bookings {
			view := ports.BookingView{Booking: b}

			rider, err := service.userRepo.FindByID(txCtx, b.RiderID)
			if err != nil {
				return err
			}
			if rider != nil {
				view.Rider = &ports.RiderSummary{
					RiderID: rider.ID,
					Name:    rider.Name,
					Rating:  rider.EffectiveRating(rating.RoleRider),
					Phone:   rider.Phone,
				}
			}

			views = append(views, view)
		}
		return nil
	})
	return views, err
}

// GetUserBookingStats folds a rider's booking history into totals.
func (service *bookingService) GetUserBookingStats(ctx context.Context, riderID string) (ports.BookingStats, error) {
	var stats ports.BookingStats
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		bookings, err := service.bookingRepo.FindByUserID(txCtx, riderID, ports.BookingFilters{})
		if err != nil {
			return err
		}

		for _, b := range bookings {
			stats.Total++
			switch {
			case b.Status == booking.StatusConfirmed:
				stats.Confirmed++
				stats.TotalSpent += b.TotalAmount
			case b.Status == booking.StatusCompleted:
				stats.Completed++
				stats.TotalSpent += b.TotalAmount
			case b.Status.Cancelled():
				stats.Cancelled++
				stats.TotalRefunded += b.RefundAmount
			}
		}
		return nil
	})
	return stats, err
}
