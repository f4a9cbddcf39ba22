package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"unipool/internal/general/contracts"
)

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// publishBookingEvent sends a booking state change to the booking topic
// exchange using routing key booking.event.{type}. Publish failures are
// logged, never propagated.
func (service *bookingService) publishBookingEvent(ctx context.Context, msg contracts.BookingEventMessage) {
	routingKey := contracts.RouteBookingEventPrefix + msg.Type

	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, "booking_event_marshal_failed", "Failed to marshal booking event", err, map[string]any{
			"booking_id": msg.BookingID,
		})
		return
	}

	if err := service.pub.Publish(contracts.ExchangeBookingTopic, routingKey, body); err != nil {
		service.logger.Error(ctx, "booking_event_publish_failed", "Failed to publish booking event to RabbitMQ", err, map[string]any{
			"booking_id":  msg.BookingID,
			"routing_key": routingKey,
		})
		return
	}

	service.logger.Info(ctx, "booking_event_published", "Published booking event to RabbitMQ", map[string]any{
		"routing_key": routingKey,
		"booking_id":  msg.BookingID,
	})
}
