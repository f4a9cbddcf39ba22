package service

import (
	"context"
	"strconv"

	"unipool/internal/domain/ride"
	"unipool/internal/ports"
)

// GetActiveRides returns a paginated list of active rides with their
// confirmed seat counts.
func (service *adminService) GetActiveRides(ctx context.Context, page, pageSize string) (ports.ActiveRidesResult, error) {
	// fall back to sane defaults on missing or bad paging input
	pageInt, err := strconv.Atoi(page)
	if err != nil || pageInt < 1 {
		pageInt = 1
	}
	sizeInt, err := strconv.Atoi(pageSize)
	if err != nil || sizeInt < 1 {
		sizeInt = 10
	}

	var res ports.ActiveRidesResult
	res.Page = pageInt
	res.PageSize = sizeInt

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		nActive, err := service.adminRepo.CountRidesByStatus(txCtx, ride.StatusActive)
		if err != nil {
			return err
		}
		res.TotalCount = nActive

		offset := (pageInt - 1) * sizeInt
		rows, err := service.adminRepo.ActiveRideSummaries(txCtx, offset, sizeInt)
		if err != nil {
			return err
		}

		res.Rides = make([]ports.ActiveRideRow, 0, len(rows))
		for _, r := range rows {
			res.Rides = append(res.Rides, ports.ActiveRideRow{
				RideID:             r.RideID,
				DriverID:           r.DriverID,
				PickupAddress:      r.PickupAddress,
				DestinationAddress: r.DestinationAddress,
				DepartureTime:      r.DepartureTime.UTC(),
				TotalSeats:         r.TotalSeats,
				AvailableSeats:     r.AvailableSeats,
				SeatsBooked:        r.SeatsBooked,
				ConfirmedBookings:  r.ConfirmedBookings,
			})
		}
		return nil
	})
	if err != nil {
		return ports.ActiveRidesResult{}, err
	}

	return res, nil
}
