package service

import (
	"context"
	"strings"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/rating"
)

// GetRideRatings lists every rating left on a ride, both directions,
// oldest first.
func (service *ratingService) GetRideRatings(ctx context.Context, rideID string) ([]rating.Rating, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, fault.Validationf("ride_id is required")
	}

	var ratings []rating.Rating
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.FindByID(txCtx, rideID)
		if err != nil {
			return err
		}
		if r == nil {
			return fault.NotFoundf("ride %s not found", rideID)
		}

		ratings, err = service.ratingRepo.FindByRideID(txCtx, rideID)
		return err
	})
	return ratings, err
}
