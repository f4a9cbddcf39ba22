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

// publishRideEvent sends a ride lifecycle change to the booking topic
// exchange using routing key booking.event.{type}. Publish failures are
// logged, never propagated.
func (service *rideService) publishRideEvent(ctx context.Context, msg contracts.RideEventMessage) {
	routingKey := contracts.RouteBookingEventPrefix + msg.Type

	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, "ride_event_marshal_failed", "Failed to marshal ride event", err, map[string]any{
			"ride_id": msg.RideID,
		})
		return
	}

	if err := service.pub.Publish(contracts.ExchangeBookingTopic, routingKey, body); err != nil {
		service.logger.Error(ctx, "ride_event_publish_failed", "Failed to publish ride event to RabbitMQ", err, map[string]any{
			"ride_id":     msg.RideID,
			"routing_key": routingKey,
		})
		return
	}

	service.logger.Info(ctx, "ride_event_published", "Published ride event to RabbitMQ", map[string]any{
		"routing_key": routingKey,
		"ride_id":     msg.RideID,
	})
}
