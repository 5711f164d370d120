package config

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// ErrDiscard marks a message that can never be handled. It is nacked without requeue.
var ErrDiscard = errors.New("discard message")

type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(conn *amqp.Connection, queueName string) (*Consumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	q, err := declareQueue(ch, queueName)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return &Consumer{channel: ch, queue: q.Name}, nil
}

// Consume hands every delivery to handler until ctx is done or the channel closes.
// Failed messages are requeued unless the error wraps ErrDiscard.
func (c *Consumer) Consume(ctx context.Context, handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	log.Infof("consuming %s", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			if err := handler(msg.Body); err != nil {
				requeue := !errors.Is(err, ErrDiscard)
				log.WithField("requeue", requeue).Errorf("handle message failed: %v", err)
				msg.Nack(false, requeue)
				continue
			}
			msg.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
