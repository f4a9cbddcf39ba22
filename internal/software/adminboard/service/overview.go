package service

import (
	"context"
	"math"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/user"
	"unipool/internal/ports"
)

// GetSystemOverview collects a set of aggregate metrics about the current
// state of the platform.
func (service *adminService) GetSystemOverview(ctx context.Context) (ports.SystemOverviewResult, error) {
	var res ports.SystemOverviewResult
	now := time.Now().UTC()
	res.Timestamp = now

	// define the start and end of the day
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	// collect the metrics within one transaction
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		nActive, err := service.adminRepo.CountRidesByStatus(txCtx, ride.StatusActive)
		if err != nil {
			return err
		}
		res.Metrics.ActiveRides = nActive

		ridesToday, err := service.adminRepo.CountRidesCreatedBetween(txCtx, startOfDay, endOfDay)
		if err != nil {
			return err
		}
		res.Metrics.RidesToday = ridesToday

		bookingsToday, err := service.adminRepo.CountBookingsCreatedBetween(txCtx, startOfDay, endOfDay)
		if err != nil {
			return err
		}
		res.Metrics.BookingsToday = bookingsToday

		revenueToday, err := service.adminRepo.SumConfirmedAmountBetween(txCtx, startOfDay, endOfDay)
		if err != nil {
			return err
		}
		res.Metrics.ConfirmedRevenueToday = revenueToday

		cancelledToday, err := service.adminRepo.CountBookingsByStatusBetween(txCtx,
			[]booking.Status{booking.StatusCancelled, booking.StatusCancelledLate},
			startOfDay, endOfDay)
		if err != nil {
			return err
		}
		if bookingsToday > 0 {
			rate := float64(cancelledToday) / float64(bookingsToday)
			res.Metrics.CancellationRateToday = math.Round(rate*100) / 100
		}

		nFlagged, err := service.adminRepo.CountUsersByStatus(txCtx, user.StatusFlagged)
		if err != nil {
			return err
		}
		res.Metrics.FlaggedUsers = nFlagged

		nSafetyFlagged, err := service.adminRepo.CountUsersByStatus(txCtx, user.StatusSafetyFlagged)
		if err != nil {
			return err
		}
		res.Metrics.SafetyFlaggedUsers = nSafetyFlagged

		noShowsToday, err := service.adminRepo.CountIncidentsBetween(txCtx, startOfDay, endOfDay)
		if err != nil {
			return err
		}
		res.Metrics.NoShowsToday = noShowsToday

		return nil
	})
	if err != nil {
		return ports.SystemOverviewResult{}, err
	}

	service.logger.Info(ctx, "system_overview_built", "System overview collected", map[string]any{
		"active_rides":   res.Metrics.ActiveRides,
		"bookings_today": res.Metrics.BookingsToday,
	})

	return res, nil
}
