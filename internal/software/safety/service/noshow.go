package service

import (
	"context"
	"fmt"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/safety"
	"unipool/internal/domain/user"
	"unipool/internal/ports"
)

// RecordNoShow archives a no-show incident against a user, applies the
// automatic one-star penalty, and escalates repeat offenders: a warning
// at the configured threshold, a safety flag at five.
func (service *safetyService) RecordNoShow(ctx context.Context, bookingID, userID string, role rating.RoleType) (*safety.Incident, error) {
	if !role.Valid() {
		return nil, fault.Validationf("role type must be driver or rider")
	}

	incident := &safety.Incident{
		UserID:    userID,
		BookingID: bookingID,
		RoleType:  role.String(),
		Type:      safety.IncidentNoShow,
		CreatedAt: time.Now().UTC(),
	}

	var count int
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.FindByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return fault.NotFoundf("booking %s not found", bookingID)
		}

		if err := service.incidentRepo.Create(txCtx, incident); err != nil {
			return err
		}

		count, err = service.incidentRepo.CountByUserAndType(txCtx, userID, safety.IncidentNoShow)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "no_show_record_failed", "Failed to record no-show incident", err, map[string]any{
			"booking_id": bookingID,
			"user_id":    userID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "no_show_recorded", fmt.Sprintf("No-show incident recorded for user %s", userID), map[string]any{
		"incident_id": incident.ID,
		"booking_id":  bookingID,
		"user_id":     userID,
		"total_count": count,
	})

	// penalty rating and escalation are best-effort after the incident
	// is committed
	if _, err := service.rater.ApplyAutomaticRating(ctx, userID, 1, role, "No-show for booked ride"); err != nil {
		service.logger.Error(ctx, "no_show_rating_failed", "Failed to apply no-show penalty rating", err, map[string]any{
			"user_id": userID,
		})
	}

	service.escalateNoShows(ctx, userID, count)

	return incident, nil
}

func (service *safetyService) escalateNoShows(ctx context.Context, userID string, count int) {
	if count >= noShowFlagThreshold {
		err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
			reason := fmt.Sprintf("%d no-show incidents", count)
			return service.userRepo.UpdateStatus(txCtx, userID, user.StatusSafetyFlagged, reason, time.Now().UTC())
		})
		if err != nil {
			service.logger.Error(ctx, "no_show_flag_failed", "Failed to safety-flag account", err, map[string]any{
				"user_id": userID,
			})
			return
		}

		if _, err := service.notifier.SendNotification(ctx, userID, ports.SendNotificationInput{
			Type:     "account_safety_flagged",
			Title:    "Account Suspended for Review",
			Message:  "Your account has been flagged for repeated no-shows. Please contact support.",
			Priority: notification.PriorityCritical,
		}); err != nil {
			service.logger.Error(ctx, "no_show_flag_notify_failed", "Failed to send safety flag notification", err, map[string]any{
				"user_id": userID,
			})
		}
		return
	}

	if count >= service.cfg.Safety.NoShowThreshold {
		if _, err := service.notifier.SendNotification(ctx, userID, ports.SendNotificationInput{
			Type:     "no_show_warning",
			Title:    "No-Show Warning",
			Message:  fmt.Sprintf("You have %d recorded no-shows. Further incidents will restrict your account.", count),
			Priority: notification.PriorityHigh,
		}); err != nil {
			service.logger.Error(ctx, "no_show_warn_notify_failed", "Failed to send no-show warning", err, map[string]any{
				"user_id": userID,
			})
		}
	}
}
