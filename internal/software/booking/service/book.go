package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/ride"
	"unipool/internal/general/contracts"
	"unipool/internal/ports"
)

const rideLockTTL = 5 * time.Second

// BookRide reserves seats on an active ride and creates a confirmed
// booking. The seat decrement and the booking insert commit in one
// transaction; the conditional decrement is what makes two riders racing
// for the last seat mutually exclusive.
func (service *bookingService) BookRide(ctx context.Context, in ports.BookRideInput) (*booking.Booking, error) {
	if in.SeatsRequested < booking.MinSeatsPerBooking || in.SeatsRequested > booking.MaxSeatsPerBooking {
		return nil, fault.Validationf("seats requested must be between %d and %d",
			booking.MinSeatsPerBooking, booking.MaxSeatsPerBooking)
	}
	if strings.TrimSpace(in.PickupPoint) == "" {
		return nil, fault.Validationf("pickup point is required")
	}

	corrID := generateCorrelationID()

	// best-effort short lock to thin out contention on hot rides; the
	// database decrement stays authoritative
	if service.cache != nil {
		if ok, err := service.cache.AcquireRideLock(ctx, in.RideID, rideLockTTL); err == nil && ok {
			defer func() { _ = service.cache.ReleaseRideLock(ctx, in.RideID) }()
		}
	}

	var (
		b *booking.Booking
		r *ride.Ride
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = service.rideRepo.FindByID(txCtx, in.RideID)
		if err != nil {
			return err
		}
		if r == nil {
			return fault.NotFoundf("ride %s not found", in.RideID)
		}
		if r.Status != ride.StatusActive {
			return fault.Conflictf("ride %s is not active", in.RideID)
		}

		// remaining capacity derives from confirmed bookings, not the
		// cached counter
		confirmed, err := service.bookingRepo.ConfirmedForRide(txCtx, in.RideID)
		if err != nil {
			return err
		}
		remaining := r.TotalSeats - sumSeats(confirmed)
		if remaining < in.SeatsRequested {
			return fault.Capacityf("only %d seats remaining on ride %s", remaining, in.RideID)
		}

		// one live booking per rider per ride
		prior, err := service.bookingRepo.FindByRideAndRider(txCtx, in.RideID, in.RiderID)
		if err != nil {
			return err
		}
		if prior != nil && !prior.Status.Cancelled() && prior.Status != booking.StatusRejected {
			return fault.Conflictf("rider %s already has a booking for ride %s", in.RiderID, in.RideID)
		}

		b, err = booking.NewBooking(in.RideID, in.RiderID, in.SeatsRequested, in.PickupPoint, in.SpecialRequests, r.PricePerSeat)
		if err != nil {
			return fault.Wrap(fault.KindValidation, err, "invalid booking request")
		}

		// conditional decrement in the same transaction as the insert
		reserved, err := service.rideRepo.ReserveSeats(txCtx, in.RideID, in.SeatsRequested)
		if err != nil {
			return err
		}
		if !reserved {
			return fault.Capacityf("seats on ride %s were taken concurrently", in.RideID)
		}

		return service.bookingRepo.Create(txCtx, b)
	})
	if err != nil {
		service.logger.Error(ctx, "booking_create_failed", "Failed to book ride", err, map[string]any{
			"ride_id":    in.RideID,
			"rider_id":   in.RiderID,
			"seats":      in.SeatsRequested,
			"request_id": corrID,
		})
		return nil, err
	}

	if service.cache != nil {
		_ = service.cache.InvalidateAvailability(ctx, in.RideID)
	}

	service.logger.Info(ctx, "booking_created", fmt.Sprintf("Booking %s confirmed", b.BookingCode), map[string]any{
		"booking_id": b.ID,
		"ride_id":    in.RideID,
		"rider_id":   in.RiderID,
		"seats":      in.SeatsRequested,
		"amount":     b.TotalAmount,
		"request_id": corrID,
	})

	// fan-out: notifications and the booking event are best-effort and
	// never roll back the committed booking
	service.notifyBookingConfirmed(ctx, b, r)
	service.publishBookingEvent(ctx, contracts.BookingEventMessage{
		Type:           contracts.EventBookingConfirmed,
		BookingID:      b.ID,
		BookingCode:    b.BookingCode,
		RideID:         b.RideID,
		RiderID:        b.RiderID,
		SeatsRequested: b.SeatsRequested,
		Status:         b.Status.String(),
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      "booking-service",
			SentAt:        time.Now().UTC(),
		},
	})

	return b, nil
}

// notifyBookingConfirmed tells the rider and alerts the driver.
func (service *bookingService) notifyBookingConfirmed(ctx context.Context, b *booking.Booking, r *ride.Ride) {
	if _, err := service.notifier.SendNotification(ctx, b.RiderID, ports.SendNotificationInput{
		Type:     "booking_confirmed",
		Title:    "Booking Confirmed",
		Message:  fmt.Sprintf("Your booking %s for %d seat(s) is confirmed.", b.BookingCode, b.SeatsRequested),
		Priority: notification.PriorityHigh,
		Data:     map[string]any{"booking_id": b.ID, "ride_id": b.RideID},
	}); err != nil {
		service.logger.Error(ctx, "booking_notify_rider_failed", "Failed to notify rider of confirmed booking", err, map[string]any{
			"booking_id": b.ID,
		})
	}

	if _, err := service.notifier.SendNotification(ctx, r.DriverID, ports.SendNotificationInput{
		Type:     "new_booking",
		Title:    "New Booking",
		Message:  fmt.Sprintf("A rider booked %d seat(s) on your ride to %s.", b.SeatsRequested, r.Destination.Address),
		Priority: notification.PriorityMedium,
		Data:     map[string]any{"booking_id": b.ID, "ride_id": b.RideID},
	}); err != nil {
		service.logger.Error(ctx, "booking_notify_driver_failed", "Failed to notify driver of new booking", err, map[string]any{
			"booking_id": b.ID,
		})
	}
}

func sumSeats(bookings []*booking.Booking) int {
	total := 0
	for _, b := range bookings {
		total += b.SeatsRequested
	}
	return total
}
