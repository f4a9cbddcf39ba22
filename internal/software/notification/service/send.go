package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/user"
	"unipool/internal/general/contracts"
	"unipool/internal/ports"
)

// SendNotification persists a notification and fans it out across the
// channels enabled both globally and in the user's preferences. A send
// inside the user's quiet hours is a deliberate drop: nothing is
// persisted and (nil, nil) is returned.
func (service *notificationService) SendNotification(ctx context.Context, userID string, in ports.SendNotificationInput) (*ports.NotificationReceipt, error) {
	// build and validate the notification up front
	n, err := notification.New(userID, in.Type, in.Title, in.Message, in.Priority, in.Data)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid notification")
	}

	// load the recipient for preferences and addressing
	var recipient *user.User
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		recipient, err = service.userRepo.FindByID(txCtx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, fault.NotFoundf("user %s not found", userID)
	}

	// quiet hours suppress the send entirely
	if recipient.Prefs.QuietHours != nil {
		inside, qErr := recipient.Prefs.QuietHours.Contains(time.Now())
		if qErr != nil {
			service.logger.Error(ctx, "quiet_hours_unparsable", "Ignoring unparsable quiet hours window", qErr, map[string]any{
				"user_id": userID,
			})
		} else if inside {
			service.logger.Info(ctx, "notification_suppressed", "Notification suppressed by quiet hours", map[string]any{
				"user_id": userID,
				"type":    in.Type,
			})
			return nil, nil
		}
	}

	// persist the record before any delivery attempt
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.notifRepo.Create(txCtx, n)
	})
	if err != nil {
		service.logger.Error(ctx, "notification_create_failed", "Failed to persist notification", err, map[string]any{
			"user_id": userID,
			"type":    in.Type,
		})
		return nil, err
	}

	// fan out per channel; each attempt is captured independently and
	// never fails the call
	results := service.deliver(ctx, n, recipient)
	n.ApplyDeliveryResults(results)

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.notifRepo.UpdateDelivery(txCtx, n)
	})
	if err != nil {
		service.logger.Error(ctx, "notification_delivery_update_failed", "Failed to store delivery results", err, map[string]any{
			"notification_id": n.ID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "notification_sent", "Notification dispatched", map[string]any{
		"notification_id": n.ID,
		"user_id":         userID,
		"type":            in.Type,
		"status":          string(n.Status),
		"channels":        len(results),
	})

	return &ports.NotificationReceipt{Notification: n, DeliveryResults: results}, nil
}

// deliver attempts every enabled channel and records one result each.
// Channels disabled globally or by user preference are skipped, not failed.
func (service *notificationService) deliver(ctx context.Context, n *notification.Notification, recipient *user.User) map[notification.Channel]notification.ChannelResult {
	results := map[notification.Channel]notification.ChannelResult{}

	if service.cfg.Notifications.InAppEnabled {
		results[notification.ChannelInApp] = service.deliverInApp(n)
	}
	if service.cfg.Notifications.PushEnabled && recipient.Prefs.PushNotifications {
		results[notification.ChannelPush] = service.publishChannelJob(ctx, n, recipient, notification.ChannelPush)
	}
	if service.cfg.Notifications.EmailEnabled && recipient.Prefs.EmailNotifications {
		results[notification.ChannelEmail] = service.publishChannelJob(ctx, n, recipient, notification.ChannelEmail)
	}
	// SMS is disabled globally in this deployment; cfg default keeps it off

	return results
}

// deliverInApp pushes over the live WebSocket, reporting offline when the
// user has no connection.
func (service *notificationService) deliverInApp(n *notification.Notification) notification.ChannelResult {
	now := time.Now().UTC()

	connected, err := service.gateway.Deliver(n.UserID, map[string]any{
		"notification_id": n.ID,
		"type":            n.Type,
		"title":           n.Title,
		"message":         n.Message,
		"priority":        string(n.Priority),
		"data":            n.Data,
	})
	if !connected {
		return notification.ChannelResult{Status: notification.DeliveryOffline, Timestamp: now}
	}
	if err != nil {
		return notification.ChannelResult{Status: notification.DeliveryFailed, Timestamp: now, Error: err.Error()}
	}
	return notification.ChannelResult{Status: notification.DeliveryDelivered, Timestamp: now}
}

// publishChannelJob hands the channel job to the notification worker via
// the notify topic exchange, routed notify.<channel>.<priority>.
func (service *notificationService) publishChannelJob(ctx context.Context, n *notification.Notification, recipient *user.User, ch notification.Channel) notification.ChannelResult {
	now := time.Now().UTC()

	msg := contracts.NotificationMessage{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Channel:        string(ch),
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       string(n.Priority),
		Envelope: contracts.Envelope{
			CorrelationID: generateCorrelationID(),
			Producer:      "notification-service",
			SentAt:        now,
		},
	}
	switch ch {
	case notification.ChannelEmail:
		msg.Email = recipient.Email
	case notification.ChannelSMS:
		msg.Phone = recipient.Phone
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return notification.ChannelResult{Status: notification.DeliveryFailed, Timestamp: now, Error: err.Error()}
	}

	routingKey := routingPrefixFor(ch) + strings.ToLower(string(n.Priority))
	if err := service.pub.Publish(contracts.ExchangeNotifyTopic, routingKey, body); err != nil {
		service.logger.Error(ctx, "notification_publish_failed", "Failed to publish channel job", err, map[string]any{
			"notification_id": n.ID,
			"channel":         string(ch),
			"routing_key":     routingKey,
		})
		return notification.ChannelResult{Status: notification.DeliveryFailed, Timestamp: now, Error: err.Error()}
	}

	return notification.ChannelResult{Status: notification.DeliveryDelivered, Timestamp: now}
}

func routingPrefixFor(ch notification.Channel) string {
	if ch == notification.ChannelEmail {
		return contracts.RouteNotifyEmailPrefix
	}
	return contracts.RouteNotifyPushPrefix
}
