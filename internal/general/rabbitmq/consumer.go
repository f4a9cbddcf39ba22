package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// handlerTimeout bounds one delivery; a hung provider call must not stall
// the whole queue.
const handlerTimeout = 30 * time.Second

// newConsumerChannel returns a fresh channel with prefetch (QoS) applied.
func (client *Client) newConsumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if prefetch < 0 {
		prefetch = 1
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("rabbitmq: set QoS (prefetch=%d): %w", prefetch, err)
		}
	}

	return ch, nil
}

// Consume reads a queue with manual acks until ctx is cancelled or the
// channel dies. It returns nil on clean shutdown and an error when the
// caller should reconnect and try again.
func (client *Client) Consume(
	ctx context.Context,
	queue string,
	consumerTag string,
	prefetch int,
	handler func(context.Context, amqp.Delivery) error,
) error {
	ch, err := client.newConsumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(
		queue,
		consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal (ignored by RabbitMQ)
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}

	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			if consumerTag != "" {
				_ = ch.Cancel(consumerTag, false)
			}
			return nil

		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			client.handleDelivery(ctx, queue, d, handler)
		}
	}
}

// handleDelivery runs one handler call under the delivery timeout. A
// failed handler nacks without requeue: the message is dropped rather
// than poisoning the queue, and the drop is logged.
func (client *Client) handleDelivery(ctx context.Context, queue string, d amqp.Delivery, handler func(context.Context, amqp.Delivery) error) {
	hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	err := handler(hCtx, d)
	cancel()

	if err != nil {
		client.logger.Error(client.logCtx, "consume_handler_failed", "Dropping message after handler failure", err, map[string]any{
			"queue":       queue,
			"routing_key": d.RoutingKey,
			"size":        len(d.Body),
		})
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
