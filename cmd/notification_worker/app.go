package notificationworker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"unipool/internal/general/config"
	"unipool/internal/general/contracts"
	"unipool/internal/general/logger"
	"unipool/internal/general/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Run starts the delivery worker and blocks until ctx is cancelled.
// It drains the push and email queues and simulates the provider calls;
// swapping in real FCM/SMTP clients only touches the deliver functions.
func Run(ctx context.Context, prefetch int) error {
	logger := logger.New("notification-worker")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	logger.Info(ctx, "worker_started", "Notification worker started",
		map[string]any{"prefetch": prefetch})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumeLoop(ctx, logger, rmq, contracts.QueueNotifyPush, "notify-push-worker", prefetch, deliverPush)
	}()
	go func() {
		defer wg.Done()
		consumeLoop(ctx, logger, rmq, contracts.QueueNotifyEmail, "notify-email-worker", prefetch, deliverEmail)
	}()
	wg.Wait()

	logger.Info(ctx, "worker_stopped", "Notification worker stopped", nil)
	return nil
}

// consumeLoop keeps a consumer alive across channel failures; Consume
// returns when the channel closes, so we back off and re-attach.
func consumeLoop(
	ctx context.Context,
	logger *logger.Logger,
	rmq *rabbitmq.Client,
	queue, tag string,
	prefetch int,
	deliver func(context.Context, *logger.Logger, contracts.NotificationMessage) error,
) {
	for {
		err := rmq.Consume(ctx, queue, tag, prefetch, func(ctx context.Context, d amqp.Delivery) error {
			var msg contracts.NotificationMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.Error(ctx, "message_decode_failed", "Dropping undecodable delivery job", err,
					map[string]any{"queue": queue})
				return err
			}
			return deliver(logger.WithRequestID(ctx, msg.Envelope.CorrelationID), logger, msg)
		})

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Error(ctx, "consumer_restart", "Consumer stopped, reattaching", err,
				map[string]any{"queue": queue})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func deliverPush(ctx context.Context, logger *logger.Logger, msg contracts.NotificationMessage) error {
	// stand-in for a real push provider call
	logger.Info(ctx, "push_delivered", "Push notification delivered",
		map[string]any{
			"notification_id": msg.NotificationID,
			"user_id":         msg.UserID,
			"type":            msg.Type,
			"priority":        msg.Priority,
		})
	return nil
}

func deliverEmail(ctx context.Context, logger *logger.Logger, msg contracts.NotificationMessage) error {
	// stand-in for a real SMTP/provider call
	logger.Info(ctx, "email_delivered", "Email notification delivered",
		map[string]any{
			"notification_id": msg.NotificationID,
			"user_id":         msg.UserID,
			"email":           msg.Email,
			"type":            msg.Type,
		})
	return nil
}
