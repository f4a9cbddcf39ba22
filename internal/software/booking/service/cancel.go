package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/general/contracts"
	"unipool/internal/ports"
)

// CancelBooking cancels the rider's booking under the time-based penalty
// policy, releases the seats, and fires the penalty rating side effect
// for late tiers.
func (service *bookingService) CancelBooking(ctx context.Context, in ports.CancelBookingInput) (ports.CancelBookingResult, error) {
	corrID := generateCorrelationID()
	now := time.Now().UTC()

	var (
		b       *booking.Booking
		r       *ride.Ride
		outcome booking.CancellationOutcome
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		b, err = service.bookingRepo.FindByID(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return fault.NotFoundf("booking %s not found", in.BookingID)
		}
		if err := b.CancellableBy(in.RiderID); err != nil {
			switch {
			case errors.Is(err, booking.ErrNotOwnedByRider):
				return fault.Authorizationf("booking %s does not belong to rider %s", in.BookingID, in.RiderID)
			case errors.Is(err, booking.ErrAlreadyTerminal):
				return fault.Conflictf("booking %s is already %s", in.BookingID, b.Status)
			}
			return err
		}

		r, err = service.rideRepo.FindByID(txCtx, b.RideID)
		if err != nil {
			return err
		}
		if r == nil {
			return fault.NotFoundf("ride %s not found", b.RideID)
		}

		outcome = booking.EvaluateCancellation(b.TotalAmount, r.HoursUntilDeparture(now))

		if err := b.Cancel(outcome, in.Reason, now); err != nil {
			if errors.Is(err, booking.ErrInvalidTransition) {
				return fault.Conflictf("booking %s cannot be cancelled from %s", in.BookingID, b.Status)
			}
			return err
		}

		if err := service.bookingRepo.Update(txCtx, b); err != nil {
			return err
		}
		return service.rideRepo.ReleaseSeats(txCtx, b.RideID, b.SeatsRequested)
	})
	if err != nil {
		service.logger.Error(ctx, "booking_cancel_failed", "Failed to cancel booking", err, map[string]any{
			"booking_id": in.BookingID,
			"rider_id":   in.RiderID,
			"request_id": corrID,
		})
		return ports.CancelBookingResult{}, err
	}

	if service.cache != nil {
		_ = service.cache.InvalidateAvailability(ctx, b.RideID)
	}

	service.logger.Info(ctx, "booking_cancelled", fmt.Sprintf("Booking %s cancelled (%s tier)", b.BookingCode, outcome.Tier), map[string]any{
		"booking_id":            b.ID,
		"ride_id":               b.RideID,
		"tier":                  string(outcome.Tier),
		"refund_amount":         outcome.RefundAmount,
		"penalty_applied":       outcome.PenaltyApplied,
		"hours_until_departure": outcome.HoursUntilDeparture,
		"request_id":            corrID,
	})

	// penalty rating for late tiers: best-effort, exactly once, after the
	// cancellation is committed
	if outcome.AutoRating != nil {
		if _, err := service.rater.ApplyAutomaticRating(ctx, b.RiderID, outcome.AutoRating.Stars, rating.RoleRider, outcome.AutoRating.Reason); err != nil {
			service.logger.Error(ctx, "cancel_auto_rating_failed", "Failed to apply cancellation penalty rating", err, map[string]any{
				"booking_id": b.ID,
				"rider_id":   b.RiderID,
			})
		}
	}

	service.notifyBookingCancelled(ctx, b, r, outcome)
	service.publishBookingEvent(ctx, contracts.BookingEventMessage{
		Type:           contracts.EventBookingCancelled,
		BookingID:      b.ID,
		BookingCode:    b.BookingCode,
		RideID:         b.RideID,
		RiderID:        b.RiderID,
		SeatsRequested: b.SeatsRequested,
		Status:         b.Status.String(),
		RefundAmount:   outcome.RefundAmount,
		PenaltyApplied: outcome.PenaltyApplied,
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      "booking-service",
			SentAt:        time.Now().UTC(),
		},
	})

	msg := "Booking cancelled with full refund."
	if outcome.PenaltyApplied > 0 {
		msg = fmt.Sprintf("Booking cancelled. A %.0f%% penalty was applied.", outcome.PenaltyApplied/b.TotalAmount*100)
	}

	return ports.CancelBookingResult{
		BookingID:           b.ID,
		Status:              b.Status.String(),
		RefundAmount:        outcome.RefundAmount,
		PenaltyApplied:      outcome.PenaltyApplied,
		HoursUntilDeparture: outcome.HoursUntilDeparture,
		CancelledAt:         now.Format(time.RFC3339),
		Message:             msg,
	}, nil
}

// notifyBookingCancelled confirms the refund to the rider and tells the
// driver the seats opened up.
func (service *bookingService) notifyBookingCancelled(ctx context.Context, b *booking.Booking, r *ride.Ride, outcome booking.CancellationOutcome) {
	if _, err := service.notifier.SendNotification(ctx, b.RiderID, ports.SendNotificationInput{
		Type:     "booking_cancelled",
		Title:    "Booking Cancelled",
		Message:  fmt.Sprintf("Your booking %s was cancelled. Refund: %.2f.", b.BookingCode, outcome.RefundAmount),
		Priority: notification.PriorityMedium,
		Data:     map[string]any{"booking_id": b.ID, "ride_id": b.RideID},
	}); err != nil {
		service.logger.Error(ctx, "cancel_notify_rider_failed", "Failed to notify rider of cancellation", err, map[string]any{
			"booking_id": b.ID,
		})
	}

	if _, err := service.notifier.SendNotification(ctx, r.DriverID, ports.SendNotificationInput{
		Type:     "rider_cancelled",
		Title:    "Booking Cancelled",
		Message:  fmt.Sprintf("A rider cancelled %d seat(s) on your ride to %s.", b.SeatsRequested, r.Destination.Address),
		Priority: notification.PriorityMedium,
		Data:     map[string]any{"booking_id": b.ID, "ride_id": b.RideID},
	}); err != nil {
		service.logger.Error(ctx, "cancel_notify_driver_failed", "Failed to notify driver of cancellation", err, map[string]any{
			"booking_id": b.ID,
		})
	}
}
