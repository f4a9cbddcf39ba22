package service

import (
	"context"
	"fmt"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/user"
	"unipool/internal/ports"
)

// AddRating records a peer rating for a completed ride, recomputes the
// rated user's aggregate, and runs the low-rating feedback loop.
func (service *ratingService) AddRating(ctx context.Context, in ports.AddRatingInput) (*rating.Rating, error) {
	role, err := rating.ParseRole(in.RoleType)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid role type")
	}

	r, err := rating.NewRating(in.RideID, in.RaterUserID, in.RatedUserID, role, in.Stars, in.Review)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid rating")
	}

	var stats rating.Stats
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// one rating per (ride, rater, role)
		existing, err := service.ratingRepo.FindByRideAndRater(txCtx, in.RideID, in.RaterUserID, role)
		if err != nil {
			return err
		}
		if existing != nil {
			return fault.Conflictf("rating already submitted for this ride")
		}

		// both sides must have actually been on the ride
		if err := service.verifyParticipation(txCtx, in.RideID, in.RaterUserID, in.RatedUserID, role); err != nil {
			return err
		}

		if err := service.ratingRepo.Create(txCtx, r); err != nil {
			return err
		}

		stats, err = service.foldAggregate(txCtx, in.RatedUserID, role)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "rating_add_failed", "Failed to add rating", err, map[string]any{
			"ride_id":       in.RideID,
			"rater_user_id": in.RaterUserID,
			"rated_user_id": in.RatedUserID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "rating_added", fmt.Sprintf("Rating %s recorded", r.ID), map[string]any{
		"rating_id":     r.ID,
		"ride_id":       in.RideID,
		"rated_user_id": in.RatedUserID,
		"stars":         in.Stars,
		"new_average":   stats.AverageRating,
	})

	// feedback loop: best-effort, never rolls back the committed rating
	service.runFeedbackLoop(ctx, in.RatedUserID, float64(in.Stars), stats)

	return r, nil
}

// verifyParticipation checks the rater and rated user against the ride
// record: the driver side must be the driver of record, the rider side
// must hold a non-cancelled booking.
func (service *ratingService) verifyParticipation(ctx context.Context, rideID, raterID, ratedID string, role rating.RoleType) error {
	r, err := service.rideRepo.FindByID(ctx, rideID)
	if err != nil {
		return err
	}
	if r == nil {
		return fault.NotFoundf("ride %s not found", rideID)
	}

	driverID, riderID := ratedID, raterID
	if role == rating.RoleRider {
		driverID, riderID = raterID, ratedID
	}

	if r.DriverID != driverID {
		return fault.Validationf("user %s is not the driver of ride %s", driverID, rideID)
	}

	b, err := service.bookingRepo.FindByRideAndRider(ctx, rideID, riderID)
	if err != nil {
		return err
	}
	if b == nil || b.Status.Cancelled() {
		return fault.Validationf("user %s did not participate in ride %s", riderID, rideID)
	}

	return nil
}

// foldAggregate recomputes and stores the running average for one
// (user, role) pair from all their ratings.
func (service *ratingService) foldAggregate(ctx context.Context, userID string, role rating.RoleType) (rating.Stats, error) {
	ratings, err := service.ratingRepo.FindByUserID(ctx, userID, &role)
	if err != nil {
		return rating.Stats{}, err
	}

	stats := rating.ComputeStats(ratings)
	if err := service.userRepo.UpdateAggregate(ctx, userID, role, stats.AverageRating, stats.TotalRatings); err != nil {
		return rating.Stats{}, err
	}
	return stats, nil
}

// runFeedbackLoop delivers the low-rating warning and, when the lifetime
// average is critically low over a large enough sample, flags the account.
func (service *ratingService) runFeedbackLoop(ctx context.Context, userID string, stars float64, stats rating.Stats) {
	if stars <= lowRatingThreshold {
		if _, err := service.notifier.SendNotification(ctx, userID, ports.SendNotificationInput{
			Type:     "low_rating_warning",
			Title:    "Low Rating Received",
			Message:  fmt.Sprintf("You received a %.0f-star rating. Keep your rating up to continue using the platform.", stars),
			Priority: notification.PriorityHigh,
		}); err != nil {
			service.logger.Error(ctx, "low_rating_notify_failed", "Failed to send low rating warning", err, map[string]any{
				"user_id": userID,
			})
		}
	}

	if stats.AverageRating > criticalAverage || stats.TotalRatings < criticalMinRatings {
		return
	}

	if err := service.flagAccount(ctx, userID, stats); err != nil {
		service.logger.Error(ctx, "rating_flag_failed", "Failed to flag account for low average", err, map[string]any{
			"user_id": userID,
			"average": stats.AverageRating,
		})
		return
	}

	if _, err := service.notifier.SendNotification(ctx, userID, ports.SendNotificationInput{
		Type:     "account_flagged",
		Title:    "Account Under Review",
		Message:  "Your account has been flagged due to consistently low ratings. Please contact support.",
		Priority: notification.PriorityCritical,
	}); err != nil {
		service.logger.Error(ctx, "flag_notify_failed", "Failed to send account flagged notification", err, map[string]any{
			"user_id": userID,
		})
	}
}

func (service *ratingService) flagAccount(ctx context.Context, userID string, stats rating.Stats) error {
	reason := fmt.Sprintf("Average rating %.2f over %d ratings", stats.AverageRating, stats.TotalRatings)
	return service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.userRepo.UpdateStatus(txCtx, userID, user.StatusFlagged, reason, time.Now().UTC())
	})
}
