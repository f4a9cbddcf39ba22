package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/ride"
	"unipool/internal/general/contracts"
	"unipool/internal/ports"
)

// CompleteRide marks a ride completed and completes its confirmed
// bookings in the same transaction. Only the driver of record may do it.
func (service *rideService) CompleteRide(ctx context.Context, rideID, driverID string) error {
	corrID := generateCorrelationID()

	var riderIDs []string
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

		if err := r.Complete(); err != nil {
			if errors.Is(err, ride.ErrInvalidTransition) {
				return fault.Conflictf("ride %s cannot be completed from %s", rideID, r.Status)
			}
			return err
		}
		if err := service.rideRepo.UpdateStatus(txCtx, rideID, ride.StatusCompleted, *r.CompletedAt); err != nil {
			return err
		}

		confirmed, err := service.bookingRepo.ConfirmedForRide(txCtx, rideID)
		if err != nil {
			return err
		}
		for _, b := range confirmed {
			if err := b.Complete(); err != nil {
				if errors.Is(err, booking.ErrInvalidTransition) {
					continue
				}
				return err
			}
			if err := service.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
			riderIDs = append(riderIDs, b.RiderID)
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "ride_complete_failed", "Failed to complete ride", err, map[string]any{
			"ride_id":    rideID,
			"driver_id":  driverID,
			"request_id": corrID,
		})
		return err
	}

	service.logger.Info(ctx, "ride_completed", fmt.Sprintf("Ride %s completed", rideID), map[string]any{
		"ride_id":    rideID,
		"driver_id":  driverID,
		"bookings":   len(riderIDs),
		"request_id": corrID,
	})

	// invite each rider to rate the driver; best-effort
	for _, riderID := range riderIDs {
		if _, err := service.notifier.SendNotification(ctx, riderID, ports.SendNotificationInput{
			Type:     "ride_completed",
			Title:    "Ride Completed",
			Message:  "Your ride is complete. Rate your driver to help the community.",
			Priority: notification.PriorityLow,
			Data:     map[string]any{"ride_id": rideID},
		}); err != nil {
			service.logger.Error(ctx, "ride_complete_notify_failed", "Failed to notify rider of completed ride", err, map[string]any{
				"ride_id":  rideID,
				"rider_id": riderID,
			})
		}
	}

	service.publishRideEvent(ctx, contracts.RideEventMessage{
		Type:     contracts.EventRideCompleted,
		RideID:   rideID,
		DriverID: driverID,
		Status:   ride.StatusCompleted.String(),
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      "booking-service",
			SentAt:        time.Now().UTC(),
		},
	})

	return nil
}
