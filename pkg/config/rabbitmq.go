package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// EventsQueue carries committed launchpad events from the api to the worker
const EventsQueue = "launchpad_events"

// InitRabbitMQ dials RabbitMQ with retry logic
func InitRabbitMQ(s RabbitMQSettings) (*amqp.Connection, error) {
	maxRetries := 10
	retryDelay := 3 * time.Second

	var conn *amqp.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(s.URL())
		if err == nil {
			log.Infof("connected to RabbitMQ at %s", s.Host)
			return conn, nil
		}
		if i < maxRetries-1 {
			log.Warnf("failed to connect to RabbitMQ (attempt %d/%d): %v, retrying in %v", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// PurgeQueue removes all messages from a queue without deleting the queue itself
func PurgeQueue(conn *amqp.Connection, queueName string) error {
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection not initialized")
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	n, err := ch.QueuePurge(queueName, false)
	if err != nil {
		return fmt.Errorf("failed to purge queue %s: %w", queueName, err)
	}
	log.Infof("purged %d messages from %s", n, queueName)
	return nil
}

func declareQueue(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
