package service

import (
	"context"
	"math"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/ports"
)

// GetUserRatingStats folds all ratings a user received (optionally for one
// role) and relates them to their completed ride count.
func (service *ratingService) GetUserRatingStats(ctx context.Context, userID string, role *rating.RoleType) (ports.RatingStats, error) {
	var (
		stats      rating.Stats
		totalRides int
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		ratings, err := service.ratingRepo.FindByUserID(txCtx, userID, role)
		if err != nil {
			return err
		}
		stats = rating.ComputeStats(ratings)

		totalRides, err = service.countCompletedRides(txCtx, userID, role)
		return err
	})
	if err != nil {
		return ports.RatingStats{}, err
	}

	pct := 0.0
	if totalRides > 0 {
		pct = math.Round(float64(stats.TotalRatings)/float64(totalRides)*10000) / 100
	}

	return ports.RatingStats{
		TotalRatings:     stats.TotalRatings,
		AverageRating:    stats.AverageRating,
		Distribution:     stats.Distribution,
		TotalRides:       totalRides,
		RatingPercentage: pct,
	}, nil
}

// GetRecentRatings lists the newest ratings a user received.
func (service *ratingService) GetRecentRatings(ctx context.Context, userID string, limit int) ([]rating.Rating, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var ratings []rating.Rating
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		ratings, err = service.ratingRepo.FindRecentByUserID(txCtx, userID, limit)
		return err
	})
	return ratings, err
}

// countCompletedRides counts rides the user finished in the given role:
// completed rides driven, completed bookings ridden, or both.
func (service *ratingService) countCompletedRides(ctx context.Context, userID string, role *rating.RoleType) (int, error) {
	total := 0

	if role == nil || *role == rating.RoleDriver {
		n, err := service.rideRepo.CountByDriverAndStatus(ctx, userID, ride.StatusCompleted)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if role == nil || *role == rating.RoleRider {
		completed := booking.StatusCompleted
		bookings, err := service.bookingRepo.FindByUserID(ctx, userID, ports.BookingFilters{Status: &completed})
		if err != nil {
			return 0, err
		}
		total += len(bookings)
	}

	return total, nil
}
