package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/ride"
	"unipool/internal/general/contracts"
	"unipool/internal/ports"
)

// CreateRide runs the safety gate and, when every check passes, persists
// the ride in active state. A failing gate blocks creation; the report is
// carried in the returned error message and nothing is written.
func (service *rideService) CreateRide(ctx context.Context, in ports.CreateRideInput) (ports.CreateRideResult, error) {
	corrID := generateCorrelationID()

	r, err := ride.NewRide(
		in.DriverID,
		ride.Location{Address: in.PickupAddress, Latitude: in.PickupLat, Longitude: in.PickupLng},
		ride.Location{Address: in.DestAddress, Latitude: in.DestLat, Longitude: in.DestLng},
		in.DepartureTime,
		in.TotalSeats,
		in.PricePerSeat,
	)
	if err != nil {
		return ports.CreateRideResult{}, fault.Wrap(fault.KindValidation, err, "invalid ride")
	}

	report, err := service.safety.ValidateRideSafety(ctx, ports.RideSafetyInput{
		DriverID:      in.DriverID,
		DepartureTime: in.DepartureTime,
		Pickup:        in.PickupAddress,
		Destination:   in.DestAddress,
		PickupLat:     in.PickupLat,
		PickupLng:     in.PickupLng,
		DestLat:       in.DestLat,
		DestLng:       in.DestLng,
	})
	if err != nil {
		return ports.CreateRideResult{}, err
	}
	if !report.IsSafe {
		service.logger.Info(ctx, "ride_create_blocked", "Safety checks blocked ride creation", map[string]any{
			"driver_id":  in.DriverID,
			"warnings":   report.Warnings,
			"request_id": corrID,
		})
		return ports.CreateRideResult{SafetyReport: report},
			fault.Validationf("ride failed safety validation: %s", strings.Join(report.Warnings, "; "))
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.rideRepo.Create(txCtx, r)
	})
	if err != nil {
		service.logger.Error(ctx, "ride_create_failed", "Failed to create ride", err, map[string]any{
			"driver_id":  in.DriverID,
			"request_id": corrID,
		})
		return ports.CreateRideResult{}, err
	}

	service.logger.Info(ctx, "ride_created", fmt.Sprintf("Ride %s created", r.ID), map[string]any{
		"ride_id":    r.ID,
		"driver_id":  in.DriverID,
		"seats":      r.TotalSeats,
		"departure":  r.DepartureTime,
		"request_id": corrID,
	})

	// fan-out: best-effort, never rolls back the committed ride
	if _, err := service.notifier.SendNotification(ctx, in.DriverID, ports.SendNotificationInput{
		Type:     "ride_created",
		Title:    "Ride Published",
		Message:  fmt.Sprintf("Your ride to %s on %s is live.", r.Destination.Address, r.DepartureTime.Format("Jan 2 15:04")),
		Priority: notification.PriorityMedium,
		Data:     map[string]any{"ride_id": r.ID},
	}); err != nil {
		service.logger.Error(ctx, "ride_create_notify_failed", "Failed to notify driver of published ride", err, map[string]any{
			"ride_id": r.ID,
		})
	}

	service.publishRideEvent(ctx, contracts.RideEventMessage{
		Type:     contracts.EventRideCreated,
		RideID:   r.ID,
		DriverID: r.DriverID,
		Status:   r.Status.String(),
		Envelope: contracts.Envelope{
			CorrelationID: corrID,
			Producer:      "booking-service",
			SentAt:        time.Now().UTC(),
		},
	})

	return ports.CreateRideResult{
		RideID:        r.ID,
		Status:        r.Status.String(),
		DepartureTime: r.DepartureTime,
		TotalSeats:    r.TotalSeats,
		PricePerSeat:  r.PricePerSeat,
		SafetyReport:  report,
	}, nil
}
