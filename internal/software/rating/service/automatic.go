package service

import (
	"context"
	"fmt"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/rating"
)

// ApplyAutomaticRating injects a system-authored rating (cancellation
// penalties, no-show penalties). Duplicate and participation checks do
// not apply; the aggregate fold and the critical-average flag still run.
func (service *ratingService) ApplyAutomaticRating(ctx context.Context, userID string, stars int, role rating.RoleType, reason string) (*rating.Rating, error) {
	r, err := rating.NewAutomaticRating(userID, role, stars, reason)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid automatic rating")
	}

	var stats rating.Stats
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.ratingRepo.Create(txCtx, r); err != nil {
			return err
		}
		stats, err = service.foldAggregate(txCtx, userID, role)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "automatic_rating_failed", "Failed to apply automatic rating", err, map[string]any{
			"user_id": userID,
			"stars":   stars,
			"reason":  reason,
		})
		return nil, err
	}

	service.logger.Info(ctx, "automatic_rating_applied", fmt.Sprintf("Automatic %d-star rating applied", stars), map[string]any{
		"rating_id":   r.ID,
		"user_id":     userID,
		"stars":       stars,
		"reason":      reason,
		"new_average": stats.AverageRating,
	})

	service.runFeedbackLoop(ctx, userID, float64(stars), stats)

	return r, nil
}
