package config

import (
	"encoding/json"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Publisher sends JSON messages to durable queues
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	declared mapset.Set[string]
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &Publisher{channel: ch, declared: mapset.NewThreadUnsafeSet[string]()}, nil
}

// Publish publishes a message to the specified queue, declaring it on first use
func (p *Publisher) Publish(queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.declared.Contains(queueName) {
		if _, err := declareQueue(p.channel, queueName); err != nil {
			return fmt.Errorf("failed to declare queue: %w", err)
		}
		p.declared.Add(queueName)
	}
	err = p.channel.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	log.Debugf("published to %s: %s", queueName, body)
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
