package service

import (
	"context"

	"unipool/internal/ports"
)

// SendBulkNotifications dispatches the same notification to many users,
// isolating per-user failures. A quiet-hours drop still counts as a
// successful dispatch for that user.
func (service *notificationService) SendBulkNotifications(ctx context.Context, userIDs []string, in ports.SendNotificationInput) (ports.BulkResult, error) {
	result := ports.BulkResult{
		Total:   len(userIDs),
		Results: make([]ports.BulkItem, 0, len(userIDs)),
	}

	for _, userID := range userIDs {
		item := ports.BulkItem{UserID: userID}

		if _, err := service.SendNotification(ctx, userID, in); err != nil {
			item.Error = err.Error()
			result.Failed++
			service.logger.Error(ctx, "bulk_notification_item_failed", "Failed to notify user in bulk send", err, map[string]any{
				"user_id": userID,
				"type":    in.Type,
			})
		} else {
			item.Success = true
			result.Successful++
		}

		result.Results = append(result.Results, item)
	}

	service.logger.Info(ctx, "bulk_notification_done", "Bulk notification dispatched", map[string]any{
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
		"type":       in.Type,
	})

	return result, nil
}
